// Package core contains the Kick client contracts: configuration, the error
// taxonomy, credentials and their refresh, the permission guard, the wire
// naming boundary and the request pipeline. Adapter packages depend on core;
// core does not depend on them.
package core
