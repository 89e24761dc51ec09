package app

import (
	"github.com/vk/fetchgo/backends/git"
	"github.com/vk/fetchgo/backends/github"
	"github.com/vk/fetchgo/backends/socketio"
	"github.com/vk/fetchgo/internal/registry"
)

// coreBackends is the definitive registration table of all backends compiled
// into the fetchgo binary. Adding a backend means adding its Module here;
// the dispatcher itself never names a backend anywhere else.
var coreBackends = []registry.Module{
	&git.Module{},
	&github.Module{},
	&socketio.Module{},
}
