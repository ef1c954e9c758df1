package auth

import "sort"

// Module groups permissions by functional area.
type Module string

// Modules known to the platform.
const (
	// ModuleConfiguracion covers users, institutions and roles.
	ModuleConfiguracion Module = "CONFIGURACION_INSTITUCIONAL"
	// ModuleObjetivos covers strategic objectives.
	ModuleObjetivos Module = "GESTION_OBJETIVOS"
	// ModuleProyectos covers investment projects.
	ModuleProyectos Module = "PROYECTOS_INVERSION"
	// ModuleValidacion covers the validation workflow for objectives and projects.
	ModuleValidacion Module = "VALIDACION"
	// ModuleRevision covers technical review and observations.
	ModuleRevision Module = "REVISION"
	// ModuleAuditoria covers the audit trail and the bitacora.
	ModuleAuditoria Module = "AUDITORIA"
	// ModuleReportes covers reporting dashboards.
	ModuleReportes Module = "REPORTES"
)

// Permission is an atomic capability. Codes are unique across the catalog.
type Permission string

// CONFIGURACION_INSTITUCIONAL permissions.
const (
	PermCrearUsuario        Permission = "CREAR_USUARIO"
	PermEditarUsuario       Permission = "EDITAR_USUARIO"
	PermEliminarUsuario     Permission = "ELIMINAR_USUARIO"
	PermVerUsuarios         Permission = "VER_USUARIOS"
	PermCrearInstitucion    Permission = "CREAR_INSTITUCION"
	PermEditarInstitucion   Permission = "EDITAR_INSTITUCION"
	PermEliminarInstitucion Permission = "ELIMINAR_INSTITUCION"
	PermVerInstituciones    Permission = "VER_INSTITUCIONES"
	PermGestionarRoles      Permission = "GESTIONAR_ROLES"
	PermAsignarRoles        Permission = "ASIGNAR_ROLES"
)

// GESTION_OBJETIVOS permissions.
const (
	PermCrearObjetivo            Permission = "CREAR_OBJETIVO"
	PermEditarObjetivo           Permission = "EDITAR_OBJETIVO"
	PermEliminarObjetivo         Permission = "ELIMINAR_OBJETIVO"
	PermVerObjetivos             Permission = "VER_OBJETIVOS"
	PermEnviarObjetivoValidacion Permission = "ENVIAR_OBJETIVO_VALIDACION"
)

// PROYECTOS_INVERSION permissions.
const (
	PermCrearProyecto            Permission = "CREAR_PROYECTO"
	PermEditarProyecto           Permission = "EDITAR_PROYECTO"
	PermEliminarProyecto         Permission = "ELIMINAR_PROYECTO"
	PermVerProyectos             Permission = "VER_PROYECTOS"
	PermEnviarProyectoValidacion Permission = "ENVIAR_PROYECTO_VALIDACION"
)

// VALIDACION permissions.
const (
	PermValidarObjetivo         Permission = "VALIDAR_OBJETIVO"
	PermRechazarObjetivo        Permission = "RECHAZAR_OBJETIVO"
	PermValidarProyecto         Permission = "VALIDAR_PROYECTO"
	PermRechazarProyecto        Permission = "RECHAZAR_PROYECTO"
	PermVerPendientesValidacion Permission = "VER_PENDIENTES_VALIDACION"
)

// REVISION permissions.
const (
	PermRevisarObjetivo   Permission = "REVISAR_OBJETIVO"
	PermRevisarProyecto   Permission = "REVISAR_PROYECTO"
	PermEmitirObservacion Permission = "EMITIR_OBSERVACION"
)

// AUDITORIA permissions.
const (
	PermVerAuditoria      Permission = "VER_AUDITORIA"
	PermVerBitacora       Permission = "VER_BITACORA"
	PermVerEstadisticas   Permission = "VER_ESTADISTICAS"
	PermExportarAuditoria Permission = "EXPORTAR_AUDITORIA"
)

// REPORTES permissions.
const (
	PermVerReportes     Permission = "VER_REPORTES"
	PermGenerarReportes Permission = "GENERAR_REPORTES"
)

// catalog is the process-wide permission table. It is never mutated after init.
var catalog = map[Module][]Permission{ //nolint:gochecknoglobals
	ModuleConfiguracion: {
		PermCrearUsuario, PermEditarUsuario, PermEliminarUsuario, PermVerUsuarios,
		PermCrearInstitucion, PermEditarInstitucion, PermEliminarInstitucion, PermVerInstituciones,
		PermGestionarRoles, PermAsignarRoles,
	},
	ModuleObjetivos: {
		PermCrearObjetivo, PermEditarObjetivo, PermEliminarObjetivo, PermVerObjetivos,
		PermEnviarObjetivoValidacion,
	},
	ModuleProyectos: {
		PermCrearProyecto, PermEditarProyecto, PermEliminarProyecto, PermVerProyectos,
		PermEnviarProyectoValidacion,
	},
	ModuleValidacion: {
		PermValidarObjetivo, PermRechazarObjetivo, PermValidarProyecto, PermRechazarProyecto,
		PermVerPendientesValidacion,
	},
	ModuleRevision: {
		PermRevisarObjetivo, PermRevisarProyecto, PermEmitirObservacion,
	},
	ModuleAuditoria: {
		PermVerAuditoria, PermVerBitacora, PermVerEstadisticas, PermExportarAuditoria,
	},
	ModuleReportes: {
		PermVerReportes, PermGenerarReportes,
	},
}

// moduleOf is the reverse index of catalog.
var moduleOf = buildModuleIndex() //nolint:gochecknoglobals

func buildModuleIndex() map[Permission]Module {
	idx := make(map[Permission]Module)

	for module, perms := range catalog {
		for _, p := range perms {
			if other, dup := idx[p]; dup {
				panic("permission " + string(p) + " declared in " + string(other) + " and " + string(module))
			}

			idx[p] = module
		}
	}

	return idx
}

// Modules returns all catalog modules sorted by name.
func Modules() []Module {
	out := make([]Module, 0, len(catalog))
	for m := range catalog {
		out = append(out, m)
	}

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}

// ModulePermissions returns a copy of the permissions declared for module.
// Unknown modules yield nil.
func ModulePermissions(module Module) []Permission {
	perms, ok := catalog[module]
	if !ok {
		return nil
	}

	out := make([]Permission, len(perms))
	copy(out, perms)

	return out
}

// ModuleOf reports the module a permission belongs to.
func ModuleOf(p Permission) (Module, bool) {
	m, ok := moduleOf[p]
	return m, ok
}

// IsKnownPermission reports whether p is declared in the catalog.
func IsKnownPermission(p Permission) bool {
	_, ok := moduleOf[p]
	return ok
}

// IsKnownModule reports whether m is declared in the catalog.
func IsKnownModule(m Module) bool {
	_, ok := catalog[m]
	return ok
}
