package patient

import "errors"

var (
	ErrPatientNotFound      = errors.New("patient not found")
	ErrPatientAlreadyExists = errors.New("patient with this MRN already exists")
	ErrPatientDischarged    = errors.New("operation not permitted: patient is discharged")
	ErrInvalidGender        = errors.New("invalid gender value")
	ErrInvalidDateOfBirth   = errors.New("date of birth cannot be in the future")
	ErrMRNRequired          = errors.New("medical record number is required")
)
