package plugins

import (
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/wardenbot/warden/cache"
	"github.com/wardenbot/warden/helpers"
)

// Rolesync mirrors a fixed role mapping from the community guild onto the
// support guild: members holding a source role get the mapped target role,
// members who lost it get the target role removed. Besides the member join
// and update events a full resync runs every 20 minutes.
type Rolesync struct {
	locks     map[string]*sync.Mutex
	locksLock sync.Mutex
}

const roleSyncInterval = 20 * time.Minute

func (r *Rolesync) Commands() []string {
	return []string{
		"syncroles",
		"sync-roles",
	}
}

func (r *Rolesync) Init(session *discordgo.Session) {
	r.locks = make(map[string]*sync.Mutex)

	if !r.configured() {
		return
	}

	go func() {
		defer helpers.Recover()

		for {
			time.Sleep(roleSyncInterval)
			r.syncAll(session)
		}
	}()

	cache.GetLogger().WithField("module", "rolesync").Info("Started role sync loop")
}

func (r *Rolesync) Uninit(session *discordgo.Session) {
}

func (r *Rolesync) configured() bool {
	config := helpers.GetConfig()
	return config.RoleSyncSourceGuildID != "" &&
		config.RoleSyncTargetGuildID != "" &&
		len(config.RoleSyncPairs) > 0
}

// memberLock returns the mutex serializing syncs of one member
func (r *Rolesync) memberLock(userID string) *sync.Mutex {
	r.locksLock.Lock()
	defer r.locksLock.Unlock()

	lock, ok := r.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[userID] = lock
	}
	return lock
}

func (r *Rolesync) syncAll(session *discordgo.Session) {
	targetGuild, err := helpers.GetGuild(helpers.GetConfig().RoleSyncTargetGuildID)
	if err != nil {
		cache.GetLogger().WithField("module", "rolesync").Error("target guild unavailable: ", err.Error())
		return
	}

	synced := 0
	for _, member := range targetGuild.Members {
		if member.User == nil || member.User.Bot {
			continue
		}
		if r.syncMember(session, member.User.ID) {
			synced++
		}
	}

	cache.GetLogger().WithField("module", "rolesync").Info(
		"Full resync finished, adjusted roles of ", synced, " members")
}

// syncMember aligns one member's target-guild roles with their source-guild
// roles, returns true when anything changed
func (r *Rolesync) syncMember(session *discordgo.Session, userID string) (changed bool) {
	lock := r.memberLock(userID)
	lock.Lock()
	defer lock.Unlock()

	config := helpers.GetConfig()

	targetMember, err := helpers.GetGuildMember(config.RoleSyncTargetGuildID, userID)
	if err != nil {
		// not on the support guild, nothing to sync
		return false
	}

	sourceRoles := make(map[string]bool)
	sourceMember, err := helpers.GetGuildMember(config.RoleSyncSourceGuildID, userID)
	if err == nil {
		for _, roleID := range sourceMember.Roles {
			sourceRoles[roleID] = true
		}
	}
	// a member who left the community guild loses every synced role

	targetRoles := make(map[string]bool)
	for _, roleID := range targetMember.Roles {
		targetRoles[roleID] = true
	}

	for sourceRoleID, targetRoleID := range helpers.RoleSyncPairs() {
		shouldHave := sourceRoles[sourceRoleID]
		has := targetRoles[targetRoleID]

		var err error
		switch {
		case shouldHave && !has:
			err = session.GuildMemberRoleAdd(config.RoleSyncTargetGuildID, userID, targetRoleID)
			if err == nil {
				changed = true
			}
		case !shouldHave && has:
			err = session.GuildMemberRoleRemove(config.RoleSyncTargetGuildID, userID, targetRoleID)
			if err == nil {
				changed = true
			}
		}
		if helpers.IsDiscordCode(err, discordgo.ErrCodeMissingPermissions) {
			// the bot can not manage this member, every further pair fails too
			cache.GetLogger().WithField("module", "rolesync").
				Warn("missing permissions to manage roles of member ", userID)
			return changed
		}
	}
	return changed
}

func (r *Rolesync) Action(command string, content string, msg *discordgo.Message, session *discordgo.Session) {
	helpers.RequireMod(msg, func() {
		if !r.configured() {
			helpers.SendMessage(msg.ChannelID, ":x: Role sync is not set up.")
			return
		}

		args := strings.Fields(content)
		if len(args) >= 1 {
			targetID, ok := helpers.GetUserIDFromMention(args[0])
			if !ok {
				helpers.SendMessage(msg.ChannelID, ":x: Who is that?")
				return
			}
			r.syncMember(session, targetID)
			helpers.SendMessage(msg.ChannelID, ":white_check_mark: Synced roles of <@"+targetID+">.")
			return
		}

		helpers.SendMessage(msg.ChannelID, "Syncing all members, this can take a moment…")
		r.syncAll(session)
		helpers.SendMessage(msg.ChannelID, ":white_check_mark: Role sync finished.")
	})
}

func (r *Rolesync) OnGuildMemberAdd(member *discordgo.Member, session *discordgo.Session) {
	if !r.configured() || member.User == nil || member.User.Bot {
		return
	}

	config := helpers.GetConfig()
	if member.GuildID != config.RoleSyncSourceGuildID && member.GuildID != config.RoleSyncTargetGuildID {
		return
	}

	r.syncMember(session, member.User.ID)
}

func (r *Rolesync) OnGuildMemberUpdate(member *discordgo.GuildMemberUpdate, session *discordgo.Session) {
	if !r.configured() || member.User == nil || member.User.Bot {
		return
	}

	// only source-guild role changes feed the mapping
	if member.GuildID != helpers.GetConfig().RoleSyncSourceGuildID {
		return
	}

	r.syncMember(session, member.User.ID)
}

func (r *Rolesync) OnGuildMemberRemove(member *discordgo.Member, session *discordgo.Session) {
	if !r.configured() || member.User == nil {
		return
	}

	// leaving the community guild drops the synced roles on the support guild
	if member.GuildID != helpers.GetConfig().RoleSyncSourceGuildID {
		return
	}

	r.syncMember(session, member.User.ID)
}

func (r *Rolesync) OnMessage(content string, msg *discordgo.Message, session *discordgo.Session) {
}

func (r *Rolesync) OnMessageUpdate(message *discordgo.MessageUpdate, session *discordgo.Session) {
}

func (r *Rolesync) OnMessageDelete(message *discordgo.MessageDelete, session *discordgo.Session) {
}

func (r *Rolesync) OnReactionAdd(reaction *discordgo.MessageReactionAdd, session *discordgo.Session) {
}

func (r *Rolesync) OnReactionRemove(reaction *discordgo.MessageReactionRemove, session *discordgo.Session) {
}

func (r *Rolesync) OnGuildBanAdd(user *discordgo.GuildBanAdd, session *discordgo.Session) {
}

func (r *Rolesync) OnGuildBanRemove(user *discordgo.GuildBanRemove, session *discordgo.Session) {
}
