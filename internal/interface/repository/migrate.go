package repository

import "gorm.io/gorm"

// AutoMigrate creates or updates every reconciliation table
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&CrewMembers{},
		&RosterActivities{},
		&FlightRecords{},
		&ComplianceSnapshots{},
		&AircraftAssignmentSnapshots{},
		&SwapEvents{},
		&AircraftList{},
		&AirportList{},
	)
}
