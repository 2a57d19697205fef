// Package docs TenantHub API documentation
package docs

// Swagger documentation info
// @title TenantHub API
// @version 1.0
// @description Central API documentation - For all TenantHub microservices
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url http://www.tenanthub.com/support
// @contact.email support@tenanthub.com

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8000
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT token.

// Permission Service Endpoints
// @tag.name permissions
// @tag.description Permission definition catalog
// @tag.name grants
// @tag.description Time-window permission grants
// @tag.name permission-checks
// @tag.description Effective permission resolution and checks
// @tag.name cache
// @tag.description Catalog cache management
// @tag.name audit
// @tag.description Organization audit trail

// Marketplace Service Endpoints
// @tag.name apps
// @tag.description Marketplace app catalog
// @tag.name subscriptions
// @tag.description Organization app subscriptions and billing
