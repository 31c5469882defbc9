// Package logger provides a context-aware wrapper around Go's slog package
// with functional options and attribute helpers shared by formkit packages.
//
// New builds a *slog.Logger whose handler is wrapped by LogHandlerDecorator,
// which runs every registered ContextExtractor on each record. Options
// select the output format (text or json), the minimum level and static
// attributes.
//
// # Usage
//
//	log := logger.New(
//	    logger.WithDevelopment("signup-form"),
//	    logger.WithContextValue("session_id", ctxKeySession),
//	)
//
//	unit, _ := validation.New(onChange, deps, validation.WithLogger(log))
//
// Attribute helpers (UnitID, Sequence, Status, Dependency, ...) keep key
// names consistent between the engine, the registry and callers. Error and
// Errors return an empty Attr for nil errors so they can be passed
// unconditionally:
//
//	log.Debug("round resolved", logger.Status(st), logger.Error(err))
//
// Nop returns a discarding logger; it is the engine default.
package logger
