package registration

import "github.com/alem-hub/applications-bot/internal/domain/shared"

// Registration domain errors
var (
	ErrEmptyFullName     = shared.NewDomainError("registration", "Validate", shared.ErrEmptyValue, "full name is required")
	ErrEmptyPhone        = shared.NewDomainError("registration", "Validate", shared.ErrEmptyValue, "phone is required")
	ErrEmptyCity         = shared.NewDomainError("registration", "Validate", shared.ErrEmptyValue, "city is required")
	ErrUnknownFaculty    = shared.NewDomainError("registration", "SelectFaculty", shared.ErrValueOutOfRange, "faculty index out of range")
	ErrNoDocument        = shared.NewDomainError("registration", "Validate", shared.ErrEmptyValue, "document is required")
	ErrExtensionRejected = shared.NewDomainError("registration", "AttachDocument", shared.ErrInvalidFormat, "file extension is not allowed")
	ErrEmptyCatalog      = shared.NewDomainError("registration", "NewCatalog", shared.ErrValidation, "faculty list is empty")
	ErrDuplicateFaculty  = shared.NewDomainError("registration", "NewCatalog", shared.ErrValidation, "faculty listed twice")
	ErrInvalidExtension  = shared.NewDomainError("registration", "NewCatalog", shared.ErrInvalidFormat, "extension must start with a dot")
)
