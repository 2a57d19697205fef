package database

import (
	"log"
	"time"

	"tenanthub-backend/shared/config"
	"tenanthub-backend/shared/database/models"
	"tenanthub-backend/shared/database/models/billing"
	utils "tenanthub-backend/shared/utils/auth"

	"github.com/google/uuid"
)

// SeedDatabase seeds the database with initial data
func SeedDatabase() error {
	log.Println("🌱 Checking database seed data...")

	// Seed permission catalog
	permissionsCreated, err := seedPermissions()
	if err != nil {
		return err
	}

	// Seed marketplace apps
	appsCreated, err := seedApps()
	if err != nil {
		return err
	}

	if permissionsCreated > 0 || appsCreated > 0 {
		log.Printf("✅ Database seeding completed (%d permissions, %d apps created)", permissionsCreated, appsCreated)
	} else {
		log.Println("✅ Database seed data is up to date")
	}

	// Create super admin from config
	if err := CreateSuperAdminFromConfig(); err != nil {
		return err
	}

	return nil
}

// seedPermissions creates the permission definition catalog. Permissions
// are identified by slug and immutable once created.
func seedPermissions() (int, error) {
	permissions := []models.Permission{
		{Name: "View Users", Slug: "users.view", Category: "users", Description: "View organization members", IsSystem: true},
		{Name: "Manage Users", Slug: "users.manage", Category: "users", Description: "Invite, update and remove organization members", IsSystem: true},
		{Name: "View Roles", Slug: "roles.view", Category: "roles", Description: "View roles and their permissions", IsSystem: true},
		{Name: "Manage Roles", Slug: "roles.manage", Category: "roles", Description: "Create roles and manage permission grants", IsSystem: true},
		{Name: "View Organization", Slug: "organization.view", Category: "organization", Description: "View organization settings", IsSystem: true},
		{Name: "Manage Organization", Slug: "organization.manage", Category: "organization", Description: "Update organization settings", IsSystem: true},
		{Name: "View Apps", Slug: "apps.view", Category: "marketplace", Description: "Browse the app marketplace", IsSystem: true},
		{Name: "Manage Apps", Slug: "apps.manage", Category: "marketplace", Description: "Publish and update marketplace apps", IsSystem: true},
		{Name: "View Subscriptions", Slug: "subscriptions.view", Category: "billing", Description: "View app subscriptions", IsSystem: true},
		{Name: "Manage Subscriptions", Slug: "subscriptions.manage", Category: "billing", Description: "Purchase, cancel and configure app subscriptions", IsSystem: true},
		{Name: "View Audit Logs", Slug: "audit.view", Category: "audit", Description: "View the audit trail", IsSystem: true},
	}

	created := 0
	for _, permission := range permissions {
		var existing models.Permission
		result := DB.Where("slug = ?", permission.Slug).First(&existing)
		if result.Error != nil {
			if err := DB.Create(&permission).Error; err != nil {
				return created, err
			}
			created++
		}
	}

	return created, nil
}

// seedApps creates a few marketplace apps so fresh environments have
// something to subscribe to.
func seedApps() (int, error) {
	apps := []billing.App{
		{Name: "CRM Suite", Slug: "crm-suite", Description: "Customer relationship management", Category: "sales", Status: billing.AppStatusActive, Price: 29.99, TrialDays: 14, IsFeatured: true, SortOrder: 1},
		{Name: "Help Desk", Slug: "help-desk", Description: "Ticketing and customer support", Category: "support", Status: billing.AppStatusActive, Price: 19.99, TrialDays: 7, SortOrder: 2},
		{Name: "Analytics Pro", Slug: "analytics-pro", Description: "Dashboards and reporting", Category: "analytics", Status: billing.AppStatusActive, Price: 49.99, TrialDays: 0, SortOrder: 3},
	}

	created := 0
	for _, app := range apps {
		var existing billing.App
		result := DB.Where("slug = ?", app.Slug).First(&existing)
		if result.Error != nil {
			if err := DB.Create(&app).Error; err != nil {
				return created, err
			}
			created++
		}
	}

	return created, nil
}

// seedOwnerRole creates the owner role for an organization and grants it
// every seeded base permission.
func seedOwnerRole(orgID uuid.UUID) (*models.Role, error) {
	var ownerRole models.Role
	err := DB.Where("organization_id = ? AND is_organization_owner = ?", orgID, true).First(&ownerRole).Error
	if err == nil {
		return &ownerRole, nil
	}

	ownerRole = models.Role{
		Name:                "Owner",
		Slug:                "owner",
		Description:         "Organization owner with unrestricted access",
		OrganizationID:      &orgID,
		IsOrganizationOwner: true,
		HierarchyLevel:      0,
	}
	if err := DB.Create(&ownerRole).Error; err != nil {
		return nil, err
	}

	// Owners resolve to the universal permission set; the explicit rows
	// keep role listings readable.
	var permissions []models.Permission
	if err := DB.Find(&permissions).Error; err != nil {
		return nil, err
	}
	for _, permission := range permissions {
		rolePermission := models.RolePermission{
			RoleID:       ownerRole.ID,
			PermissionID: permission.ID,
		}
		if err := DB.Create(&rolePermission).Error; err != nil {
			return nil, err
		}
	}

	return &ownerRole, nil
}

// CreateSuperAdminFromConfig creates super admin using config values
func CreateSuperAdminFromConfig() error {
	cfg := config.GetConfig()
	return CreateSuperAdmin(cfg.SuperAdminEmail, cfg.SuperAdminPassword, "Super", "Admin")
}

// CreateSuperAdmin creates a super admin organization and user
func CreateSuperAdmin(email, password, firstName, lastName string) error {
	var existingUser models.User
	if err := DB.Where("email = ?", email).First(&existingUser).Error; err == nil {
		log.Println("Super admin already exists")
		return nil
	}

	var superAdminOrg models.Organization
	err := DB.Where("slug = ?", "super-admin").First(&superAdminOrg).Error
	if err != nil {
		superAdminOrg = models.Organization{
			Name:      "Super Admin Organization",
			Slug:      "super-admin",
			Email:     email,
			Status:    "ACTIVE",
			OwnerID:   uuid.New(),
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}

		if err := DB.Create(&superAdminOrg).Error; err != nil {
			return err
		}
	}

	ownerRole, err := seedOwnerRole(superAdminOrg.ID)
	if err != nil {
		return err
	}

	// Hash password before creating user
	hashedPassword, err := utils.HashPassword(password)
	if err != nil {
		return err
	}

	superAdminUser := models.User{
		Email:          email,
		Password:       hashedPassword,
		FirstName:      firstName,
		LastName:       lastName,
		Status:         "ACTIVE",
		OrganizationID: &superAdminOrg.ID,
		RoleID:         &ownerRole.ID,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}

	if err := DB.Create(&superAdminUser).Error; err != nil {
		return err
	}

	// Update organization owner to actual user ID
	superAdminOrg.OwnerID = superAdminUser.ID
	DB.Save(&superAdminOrg)

	log.Printf("✅ Super admin created: %s", email)
	return nil
}
