package domain

import (
	"context"
	"fmt"
)

// OccupancyLinkRule enforces the bidirectional room-tenant link: an occupied
// room names an existing tenant whose room set contains it, every room a
// tenant claims is occupied by that tenant, and no room is claimed twice.
type OccupancyLinkRule struct{}

// NewOccupancyLinkRule constructs the rule.
func NewOccupancyLinkRule() OccupancyLinkRule { return OccupancyLinkRule{} }

// Name identifies the rule in violations.
func (OccupancyLinkRule) Name() string { return "occupancy_link" }

// Evaluate checks the whole link graph. The entity set is small (a landlord's
// rooms and tenants), so a full pass per transaction is cheap.
func (r OccupancyLinkRule) Evaluate(_ context.Context, view TransactionView, _ []Change) (Result, error) {
	var result Result
	block := func(entity EntityType, id, msg string) {
		result.Violations = append(result.Violations, Violation{
			Rule:     r.Name(),
			Severity: SeverityBlock,
			Message:  msg,
			Entity:   entity,
			EntityID: id,
		})
	}

	tenants := view.ListTenants()
	claimed := make(map[string]string, len(tenants)) // room id -> tenant id
	for _, t := range tenants {
		for _, rid := range t.RoomIDs {
			if owner, ok := claimed[rid]; ok && owner != t.ID {
				block(EntityRoom, rid, fmt.Sprintf("room claimed by tenants %s and %s", owner, t.ID))
				continue
			}
			claimed[rid] = t.ID
			room, ok := view.FindRoom(rid)
			if !ok {
				block(EntityTenant, t.ID, fmt.Sprintf("tenant references missing room %s", rid))
				continue
			}
			if !room.IsOccupied || room.TenantID == nil || *room.TenantID != t.ID {
				block(EntityRoom, rid, fmt.Sprintf("room not marked occupied by tenant %s", t.ID))
			}
		}
	}

	for _, room := range view.ListRooms() {
		if !room.IsOccupied {
			if room.TenantID != nil {
				block(EntityRoom, room.ID, "vacant room retains a tenant reference")
			}
			continue
		}
		if room.TenantID == nil {
			block(EntityRoom, room.ID, "occupied room has no tenant reference")
			continue
		}
		tenant, ok := view.FindTenant(*room.TenantID)
		if !ok {
			block(EntityRoom, room.ID, fmt.Sprintf("occupied room references missing tenant %s", *room.TenantID))
			continue
		}
		if !containsID(tenant.RoomIDs, room.ID) {
			block(EntityRoom, room.ID, fmt.Sprintf("tenant %s does not list room", tenant.ID))
		}
	}
	return result, nil
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
