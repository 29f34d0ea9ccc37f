package discord

import "github.com/bwmarrin/discordgo"

// Capabilities se computa una vez por intent y viaja con la llamada.
// El core confía en esto y no mira permisos por su cuenta.
type Capabilities struct {
	IsAdmin     bool
	IsModerator bool
}

func (c Capabilities) CanManageQueues() bool { return c.IsAdmin || c.IsModerator }

func (r *Router) capabilities(ic *discordgo.InteractionCreate) Capabilities {
	if ic.Member == nil || ic.Member.User == nil {
		return Capabilities{}
	}
	// Owner del guild
	if g, _ := r.s.State.Guild(ic.GuildID); g != nil && ic.Member.User.ID == g.OwnerID {
		return Capabilities{IsAdmin: true}
	}

	var caps Capabilities
	roles, _ := r.s.GuildRoles(ic.GuildID)
	var perms int64
	for _, rid := range ic.Member.Roles {
		for _, ro := range roles {
			if ro.ID == rid {
				perms |= ro.Permissions
			}
		}
	}
	if perms&discordgo.PermissionAdministrator != 0 {
		caps.IsAdmin = true
	}
	if perms&(discordgo.PermissionManageMessages|discordgo.PermissionKickMembers) != 0 {
		caps.IsModerator = true
	}

	// Roles explícitos del bot cuentan como admin
	if len(r.adminRoleIDs) > 0 && !caps.IsAdmin {
		has := make(map[string]struct{}, len(ic.Member.Roles))
		for _, rid := range ic.Member.Roles {
			has[rid] = struct{}{}
		}
		for _, want := range r.adminRoleIDs {
			if _, ok := has[want]; ok {
				caps.IsAdmin = true
				break
			}
		}
	}
	return caps
}
