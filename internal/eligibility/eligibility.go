// Package eligibility answers whether a provider or patient may be
// scheduled at all. The scheduler consults it before conflict detection.
package eligibility

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/opencare/care-scheduler/internal/models"
)

// User types allowed to hold appointments.
var clinicalUserTypes = map[string]bool{
	"doctor":           true,
	"nurse":            true,
	"midwife":          true,
	"community_worker": true,
}

func IsClinicalUserType(userType string) bool {
	return clinicalUserTypes[userType]
}

type Oracle interface {
	// ProviderSchedulable reports whether the provider exists, is
	// active and holds a clinical user type.
	ProviderSchedulable(ctx context.Context, providerID uint) (bool, error)

	// PatientActive reports whether the patient exists and is active.
	PatientActive(ctx context.Context, patientID uint) (bool, error)
}

type GormOracle struct {
	db *gorm.DB
}

func NewGormOracle(db *gorm.DB) *GormOracle {
	return &GormOracle{db: db}
}

func (o *GormOracle) ProviderSchedulable(ctx context.Context, providerID uint) (bool, error) {
	var user models.User
	err := o.db.WithContext(ctx).First(&user, providerID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return user.Active && IsClinicalUserType(user.UserType), nil
}

func (o *GormOracle) PatientActive(ctx context.Context, patientID uint) (bool, error) {
	var patient models.Patient
	err := o.db.WithContext(ctx).First(&patient, patientID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return patient.Active, nil
}

var _ Oracle = (*GormOracle)(nil)
