package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/user/halrest/internal/config"
	"github.com/user/halrest/internal/models"
	"github.com/user/halrest/internal/service"
	"github.com/user/halrest/pkg/route"
)

// RouteTemplates are the named routes of the API, as RFC 6570 templates.
var RouteTemplates = []struct {
	Name     string
	Template string
}{
	{models.RouteAPI, "/api"},
	{models.RouteContacts, "/api/contacts{/id}"},
	{models.RouteOrganizations, "/api/organizations{/id}"},
}

// NewRouteTable builds the route table from RouteTemplates.
func NewRouteTable() (*route.Table, error) {
	table := route.NewTable()
	for _, rt := range RouteTemplates {
		if err := table.Add(rt.Name, rt.Template); err != nil {
			return nil, fmt.Errorf("failed to add route %q: %w", rt.Name, err)
		}
	}
	return table, nil
}

// API groups everything RegisterRoutes needs.
type API struct {
	Responder     *Responder
	Contacts      *service.ContactService
	Organizations *service.OrganizationService
	Health        *HealthHandler
	HAL           config.HALConfig
	Version       string

	// Middleware applied to the /api routes only.
	Middleware []gin.HandlerFunc
}

// RegisterRoutes mounts the health checks and the HAL API on router.
//
//	/health, /ready, /live       plain JSON / status only
//	/api                         API root
//	/api/contacts{/id}           contacts resource
//	/api/organizations{/id}      organizations resource (read-only)
func RegisterRoutes(router *gin.Engine, api API) error {
	if api.Health != nil {
		router.GET("/health", api.Health.Health)
		router.GET("/ready", api.Health.Ready)
		router.GET("/live", api.Health.Live)
	}

	table := api.Responder.Routes()
	apiGroup := router.Group("", api.Middleware...)

	home := NewHomeHandler(api.Responder, api.Version)
	if err := table.Register(apiGroup, models.RouteAPI, home.Home); err != nil {
		return err
	}

	opts := ResourceOptions{
		CollectionName: api.HAL.CollectionName,
		PageSize:       api.HAL.PageSize,
		PageSizeParam:  api.HAL.PageSizeParam,
		MaxPageSize:    api.HAL.MaxPageSize,
		QueryWhitelist: api.HAL.CollectionQueryWhitelist,
	}

	contactOpts := opts
	contactOpts.Route = models.RouteContacts
	contactOpts.CollectionMethods = ContactCollectionMethods
	contacts := NewResourceHandler(NewContactListener(api.Contacts), api.Responder, contactOpts)
	if err := table.Register(apiGroup, models.RouteContacts, contacts.Handle); err != nil {
		return err
	}

	orgOpts := opts
	orgOpts.Route = models.RouteOrganizations
	orgOpts.ResourceMethods = OrganizationMethods
	orgOpts.CollectionMethods = OrganizationMethods
	organizations := NewResourceHandler(NewOrganizationListener(api.Organizations), api.Responder, orgOpts)
	if err := table.Register(apiGroup, models.RouteOrganizations, organizations.Handle); err != nil {
		return err
	}

	return nil
}
