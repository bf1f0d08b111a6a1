package kick

import (
	"fmt"

	"github.com/goliatone/go-command/runner"
	"github.com/goliatone/go-kick/adapters/gocommand"
	kickcommand "github.com/goliatone/go-kick/command"
	kickquery "github.com/goliatone/go-kick/query"
)

type Commands = kickcommand.Commands

type Queries = kickquery.Queries

// Facade exposes a client's endpoints as go-command commanders and queriers.
type Facade struct {
	client   *Client
	commands Commands
	queries  Queries
}

func NewFacade(client *Client) (*Facade, error) {
	if client == nil || client.API == nil {
		return nil, fmt.Errorf("kick: client is required")
	}
	return &Facade{
		client:   client,
		commands: kickcommand.NewCommands(client.API),
		queries:  kickquery.NewQueries(client.API),
	}, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Client() *Client {
	if f == nil {
		return nil
	}
	return f.client
}

// Register adds every command and query to adapter's registry and subscribes
// them to the go-command dispatcher. Unsubscribe the result to detach them.
func (f *Facade) Register(adapter *gocommand.RegistryAdapter, runnerOpts ...runner.Option) (gocommand.Subscriptions, error) {
	if f == nil {
		return nil, fmt.Errorf("kick: facade is required")
	}
	commandSubs, err := gocommand.RegisterCommands(adapter, f.commands, runnerOpts...)
	if err != nil {
		return nil, err
	}
	querySubs, err := gocommand.RegisterQueries(adapter, f.queries, runnerOpts...)
	if err != nil {
		commandSubs.Unsubscribe()
		return nil, err
	}
	return append(commandSubs, querySubs...), nil
}
