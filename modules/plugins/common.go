package plugins

import (
	"strings"

	"github.com/globalsign/mgo/bson"
	"github.com/pkg/errors"
	"github.com/wardenbot/warden/helpers"
	"github.com/wardenbot/warden/models"
)

func errorMissingRole(roleName string) error {
	return errors.Errorf("the role %q does not exist on this server, please create it first", roleName)
}

// getMemberEntry reads a member snapshot, returns an empty entry with the id
// filled in when there is none yet
func getMemberEntry(guildID string, userID string) (member models.MemberEntry) {
	err := helpers.MdbOne(
		helpers.MdbCollection(models.MemberTable).Find(bson.M{"_id": models.MemberID{UserID: userID, GuildID: guildID}}),
		&member,
	)
	if helpers.IsMdbNotFound(err) {
		member.ID = models.MemberID{UserID: userID, GuildID: guildID}
		return member
	}
	helpers.Relax(err)

	return member
}

// getGuildEntry reads a guild document, returns an empty entry with the id
// filled in when there is none yet
func getGuildEntry(guildID string) (guild models.GuildEntry) {
	err := helpers.MdbOne(
		helpers.MdbCollection(models.GuildTable).Find(bson.M{"_id": guildID}),
		&guild,
	)
	if helpers.IsMdbNotFound(err) {
		guild.ID = guildID
		return guild
	}
	helpers.Relax(err)

	return guild
}

// isStaffMember reports whether the member holds an admin or mod role,
// usable from reaction events where no message author is available
func isStaffMember(guildID string, userID string) bool {
	guild, err := helpers.GetGuild(guildID)
	if err != nil {
		return false
	}
	member, err := helpers.GetGuildMember(guildID, userID)
	if err != nil {
		return false
	}

	config := helpers.GetConfig()
	roleNames := append(append([]string{}, config.AdminRoleNames...), config.ModRoleNames...)
	for _, role := range guild.Roles {
		for _, roleName := range roleNames {
			if !strings.EqualFold(role.Name, roleName) {
				continue
			}
			for _, memberRole := range member.Roles {
				if memberRole == role.ID {
					return true
				}
			}
		}
	}
	return helpers.IsBotAdmin(userID)
}

// saveGuildEntry writes a guild document back
func saveGuildEntry(guild models.GuildEntry) {
	err := helpers.MDbUpsert(models.GuildTable, bson.M{"_id": guild.ID}, guild)
	helpers.Relax(err)
}
