package postgres

import (
	"context"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/frahmantamala/lead-management/internal/department"
)

func TestDepartmentRepository(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "DepartmentRepository Suite")
}

type SQLiteCounselor struct {
	ID         int64     `gorm:"primaryKey"`
	Name       string    `gorm:"not null"`
	Email      string    `gorm:"not null"`
	Phone      string    `gorm:"column:phone"`
	Department *string   `gorm:"column:department"`
	IsActive   bool      `gorm:"column:is_active"`
	CreatedAt  time.Time `gorm:"column:created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

func (SQLiteCounselor) TableName() string {
	return "counselors"
}

type SQLiteDepartmentGrant struct {
	ID          int64  `gorm:"primaryKey"`
	PrincipalID int64  `gorm:"column:principal_id;not null"`
	Department  string `gorm:"column:department;not null"`
}

func (SQLiteDepartmentGrant) TableName() string {
	return "department_grants"
}

type SQLiteAssignment struct {
	ID         int64     `gorm:"primaryKey"`
	LeadName   string    `gorm:"column:lead_name;not null"`
	Department *string   `gorm:"column:department"`
	Status     string    `gorm:"column:status;default:'new'"`
	AssignedAt time.Time `gorm:"column:assigned_at"`
	CreatedAt  time.Time `gorm:"column:created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

func (SQLiteAssignment) TableName() string {
	return "lead_assignments"
}

func strPtr(s string) *string { return &s }

var _ = Describe("DepartmentRepository", func() {
	var (
		db   *gorm.DB
		repo department.RepositoryAPI
		ctx  context.Context
	)

	BeforeEach(func() {
		var err error

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(&SQLiteCounselor{}, &SQLiteDepartmentGrant{}, &SQLiteAssignment{})
		Expect(err).NotTo(HaveOccurred())

		repo = NewDepartmentRepository(db)
		ctx = context.Background()
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		err = sqlDB.Close()
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("ReplaceGrants", func() {
		It("should swap the full grant set", func() {
			err := repo.ReplaceGrants(ctx, 10, []string{"Sales", "Marketing"})
			Expect(err).NotTo(HaveOccurred())

			err = repo.ReplaceGrants(ctx, 10, []string{"Finance"})
			Expect(err).NotTo(HaveOccurred())

			grants, err := repo.ListGrants(ctx, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(grants).To(HaveLen(1))
			Expect(grants[0].Department).To(Equal("Finance"))
		})

		It("should clear all grants with an empty set", func() {
			err := repo.ReplaceGrants(ctx, 10, []string{"Sales"})
			Expect(err).NotTo(HaveOccurred())

			err = repo.ReplaceGrants(ctx, 10, nil)
			Expect(err).NotTo(HaveOccurred())

			grants, err := repo.ListGrants(ctx, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(grants).To(BeEmpty())
		})

		It("should leave other principals untouched", func() {
			err := repo.ReplaceGrants(ctx, 10, []string{"Sales"})
			Expect(err).NotTo(HaveOccurred())
			err = repo.ReplaceGrants(ctx, 20, []string{"Marketing"})
			Expect(err).NotTo(HaveOccurred())

			err = repo.ReplaceGrants(ctx, 10, nil)
			Expect(err).NotTo(HaveOccurred())

			grants, err := repo.ListGrants(ctx, 20)
			Expect(err).NotTo(HaveOccurred())
			Expect(grants).To(HaveLen(1))
		})
	})

	Describe("ListActiveDepartments", func() {
		BeforeEach(func() {
			counselors := []SQLiteCounselor{
				{Name: "Dina", Email: "dina@mail.com", Department: strPtr("Sales"), IsActive: true},
				{Name: "Rudi", Email: "rudi@mail.com", Department: strPtr("Marketing"), IsActive: true},
				{Name: "Ayu", Email: "ayu@mail.com", Department: strPtr("Sales"), IsActive: true},
				{Name: "Sari", Email: "sari@mail.com", Department: nil, IsActive: true},
				{Name: "Budi", Email: "budi@mail.com", Department: strPtr("Legacy"), IsActive: false},
			}
			err := db.Create(&counselors).Error
			Expect(err).NotTo(HaveOccurred())
		})

		It("should return distinct departments of active counselors", func() {
			departments, err := repo.ListActiveDepartments(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(departments).To(ConsistOf("Sales", "Marketing"))
		})

		It("should reflect deactivation immediately", func() {
			err := db.Model(&SQLiteCounselor{}).
				Where("department = ?", "Marketing").
				Update("is_active", false).Error
			Expect(err).NotTo(HaveOccurred())

			departments, err := repo.ListActiveDepartments(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(departments).To(ConsistOf("Sales"))
		})

		It("should include departments that exist only on lead assignments", func() {
			assignments := []SQLiteAssignment{
				{LeadName: "Lead A", Department: strPtr("Legacy"), Status: "new", AssignedAt: time.Now()},
				{LeadName: "Lead B", Department: nil, Status: "new", AssignedAt: time.Now()},
			}
			err := db.Create(&assignments).Error
			Expect(err).NotTo(HaveOccurred())

			departments, err := repo.ListActiveDepartments(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(departments).To(ConsistOf("Sales", "Marketing", "Legacy"))
		})

		It("should not drop assignment departments when their counselors deactivate", func() {
			err := db.Create(&SQLiteAssignment{
				LeadName: "Lead C", Department: strPtr("Marketing"), Status: "new", AssignedAt: time.Now(),
			}).Error
			Expect(err).NotTo(HaveOccurred())

			err = db.Model(&SQLiteCounselor{}).
				Where("department = ?", "Marketing").
				Update("is_active", false).Error
			Expect(err).NotTo(HaveOccurred())

			departments, err := repo.ListActiveDepartments(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(departments).To(ConsistOf("Sales", "Marketing"))
		})
	})

	Describe("Scope", func() {
		BeforeEach(func() {
			counselors := []SQLiteCounselor{
				{Name: "Dina", Email: "dina@mail.com", Department: strPtr("Sales"), IsActive: true},
				{Name: "Rudi", Email: "rudi@mail.com", Department: strPtr("Marketing"), IsActive: true},
				{Name: "Sari", Email: "sari@mail.com", Department: nil, IsActive: true},
			}
			err := db.Create(&counselors).Error
			Expect(err).NotTo(HaveOccurred())
		})

		It("should include allowed departments and NULL rows", func() {
			var visible []SQLiteCounselor
			err := db.Scopes(department.Scope([]string{"Sales"}, "department")).
				Find(&visible).Error
			Expect(err).NotTo(HaveOccurred())

			names := make([]string, 0, len(visible))
			for _, c := range visible {
				names = append(names, c.Name)
			}
			Expect(names).To(ConsistOf("Dina", "Sari"))
		})

		It("should return only NULL rows for an empty scope", func() {
			var visible []SQLiteCounselor
			err := db.Scopes(department.Scope(nil, "department")).
				Find(&visible).Error
			Expect(err).NotTo(HaveOccurred())

			Expect(visible).To(HaveLen(1))
			Expect(visible[0].Name).To(Equal("Sari"))
		})

		It("should exclude rows tagged outside the scope", func() {
			err := db.Create(&SQLiteCounselor{
				Name: "Eka", Email: "eka@mail.com", Department: strPtr("Finance"), IsActive: true,
			}).Error
			Expect(err).NotTo(HaveOccurred())

			var visible []SQLiteCounselor
			err = db.Scopes(department.Scope([]string{"Sales", "Marketing"}, "department")).
				Find(&visible).Error
			Expect(err).NotTo(HaveOccurred())

			names := make([]string, 0, len(visible))
			for _, c := range visible {
				names = append(names, c.Name)
			}
			Expect(names).To(ConsistOf("Dina", "Rudi", "Sari"))
		})
	})
})
