package models

// Organization is the billing and tenancy unit. SeatLimit is the
// capacity ceiling shared by active members and pending invites; it is
// set at provisioning time from the plan policy table and only grows.
type Organization struct {
	Base
	Name      string `gorm:"not null" json:"name"`
	Tier      string `gorm:"not null" json:"tier"`
	SeatLimit int    `gorm:"not null;default:1" json:"seat_limit"`

	// Relationships
	Users          []User          `gorm:"foreignKey:OrganizationID" json:"-"`
	Invites        []Invite        `gorm:"foreignKey:OrganizationID" json:"-"`
	Companies      []Company       `gorm:"foreignKey:OrganizationID" json:"-"`
	Deals          []Deal          `gorm:"foreignKey:OrganizationID" json:"-"`
	CRMConnections []CRMConnection `gorm:"foreignKey:OrganizationID" json:"-"`
}

func (Organization) TableName() string {
	return "organizations"
}
