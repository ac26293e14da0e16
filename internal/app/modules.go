package app

import (
	"github.com/vk/sentgrid/internal/registry"
	"github.com/vk/sentgrid/modules/core"
	"github.com/vk/sentgrid/modules/english"
	"github.com/vk/sentgrid/modules/env_vars"
	"github.com/vk/sentgrid/modules/textfuncs"
)

// coreModules is the definitive list of all modules that are compiled into
// the sentgrid binary.
var coreModules = []registry.Module{
	&core.Module{},
	&textfuncs.Module{},
	&english.Module{},
	&env_vars.Module{},
}
