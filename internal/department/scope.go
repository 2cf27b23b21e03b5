package department

import "gorm.io/gorm"

// Scope narrows a query on department-tagged rows to the allowed set. The
// caller supplies its own column name so the same refinement serves the
// counselor directory, lead assignments, and consulting dashboards without
// domain branching here.
//
// Rows whose department is NULL are always included: unassigned subjects
// stay visible to any admin so they can be triaged. With an empty allowed
// set the refined query therefore returns only NULL-department rows, never
// all rows.
func Scope(allowed []string, column string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if len(allowed) == 0 {
			return db.Where(column + " IS NULL")
		}
		return db.Where(column+" IN ? OR "+column+" IS NULL", allowed)
	}
}
