package app

import (
	"github.com/specialistvlad/gridflow/internal/registry"
	"github.com/specialistvlad/gridflow/modules/dummy"
	"github.com/specialistvlad/gridflow/modules/http_request"
	"github.com/specialistvlad/gridflow/modules/print"
	"github.com/specialistvlad/gridflow/modules/process"
	"github.com/specialistvlad/gridflow/modules/socketio"
)

// coreModules is the definitive list of all modules that are compiled into
// the gridflow binary.
var coreModules = []registry.Module{
	&process.Module{},
	&dummy.Module{},
	&print.Module{},
	&http_request.Module{},
	&socketio.Module{},
}
