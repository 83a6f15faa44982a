// Package permission turns configured role lists into Discord command permission
// grants. Commands are hidden by default; a grant makes a command visible to one role.
package permission

import (
	"slices"

	"github.com/bwmarrin/discordgo"
)

// hiddenByDefault is the DefaultMemberPermissions value that hides a command
// from everyone without an explicit grant (administrators excepted).
const hiddenByDefault int64 = 0

// Roles returns the ordered union of the given role sets with duplicates and
// empty ids removed.
func Roles(sets ...[]string) []string {
	var out []string
	for _, set := range sets {
		for _, id := range set {
			if id == "" || slices.Contains(out, id) {
				continue
			}
			out = append(out, id)
		}
	}
	return out
}

// Grants returns one allow grant per distinct role across sets.
func Grants(sets ...[]string) []*discordgo.ApplicationCommandPermissions {
	roles := Roles(sets...)
	grants := make([]*discordgo.ApplicationCommandPermissions, 0, len(roles))
	for _, id := range roles {
		grants = append(grants, &discordgo.ApplicationCommandPermissions{
			ID:         id,
			Type:       discordgo.ApplicationCommandPermissionTypeRole,
			Permission: true,
		})
	}
	return grants
}

// Apply sets the default visibility of def from its role list: hidden when roles
// is non-empty, open to everyone otherwise.
func Apply(def *discordgo.ApplicationCommand, roles []string) {
	if def == nil {
		return
	}
	if len(roles) == 0 {
		def.DefaultMemberPermissions = nil
		return
	}
	hidden := hiddenByDefault
	def.DefaultMemberPermissions = &hidden
}

// Allowed reports whether a member holding memberRoles may run a command
// restricted to roles. An empty restriction allows everyone.
func Allowed(roles, memberRoles []string) bool {
	if len(roles) == 0 {
		return true
	}
	for _, r := range memberRoles {
		if slices.Contains(roles, r) {
			return true
		}
	}
	return false
}
