package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User roles. Role-specific fields live in the matching detail block,
// only one of which is set per user.
const (
	RoleDriver     = "driver"
	RoleEmployer   = "employer"
	RoleIndividual = "individual"
)

func ValidRole(role string) bool {
	switch role {
	case RoleDriver, RoleEmployer, RoleIndividual:
		return true
	default:
		return false
	}
}

// DriverDetails holds the fields that only apply to driver accounts.
type DriverDetails struct {
	LicenseNumber string   `bson:"licenseNumber,omitempty" json:"licenseNumber,omitempty"`
	VehicleTypes  []string `bson:"vehicleTypes,omitempty" json:"vehicleTypes,omitempty"`
	ExperienceYrs int      `bson:"experienceYears,omitempty" json:"experienceYears,omitempty"`
}

// EmployerDetails holds the fields that only apply to employer accounts.
type EmployerDetails struct {
	CompanyName string `bson:"companyName,omitempty" json:"companyName,omitempty"`
	TaxNumber   string `bson:"taxNumber,omitempty" json:"taxNumber,omitempty"`
}

// Rating is the aggregate derived from all reviews where the user is the
// reviewee. Average is kept to one decimal place.
type Rating struct {
	Average float64 `bson:"average" json:"average"`
	Count   int     `bson:"count" json:"count"`
}

type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email     string             `bson:"email" json:"email"`
	Password  string             `bson:"password" json:"-"`
	Name      string             `bson:"name" json:"name"`
	Phone     string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Role      string             `bson:"role" json:"role"`
	Driver    *DriverDetails     `bson:"driverDetails,omitempty" json:"driverDetails,omitempty"`
	Employer  *EmployerDetails   `bson:"employerDetails,omitempty" json:"employerDetails,omitempty"`
	Rating    Rating             `bson:"rating" json:"rating"`
	AvatarURL string             `bson:"avatarURL,omitempty" json:"avatarURL,omitempty"`
	Active    bool               `bson:"active" json:"active"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// PublicProfile strips the fields that must not leave the server.
type PublicProfile struct {
	ID        primitive.ObjectID `json:"id"`
	Name      string             `json:"name"`
	Role      string             `json:"role"`
	Rating    Rating             `json:"rating"`
	AvatarURL string             `json:"avatarURL,omitempty"`
}

func (u *User) Public() PublicProfile {
	return PublicProfile{
		ID:        u.ID,
		Name:      u.Name,
		Role:      u.Role,
		Rating:    u.Rating,
		AvatarURL: u.AvatarURL,
	}
}
