package params

import "errors"

var (
	// ErrSchemaNameRequired indicates Define received an empty name.
	ErrSchemaNameRequired = errors.New("params: schema name must be provided")
	// ErrFieldNameRequired indicates a field was declared without a name.
	ErrFieldNameRequired = errors.New("params: field name must be provided")
	// ErrDuplicateField indicates a field name was declared twice.
	ErrDuplicateField = errors.New("params: field names must be unique")
	// ErrReservedField indicates a field collides with a control field.
	ErrReservedField = errors.New("params: field name is reserved")
	// ErrNilGetter indicates a computed field was declared without a getter.
	ErrNilGetter = errors.New("params: getter must not be nil")
)
