package command_handler

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/glazed-darnut/VerifyBot/bot"
	"github.com/glazed-darnut/VerifyBot/model"
	"github.com/glazed-darnut/VerifyBot/pkg/log"
)

const (
	GuildNotFoundMessage = "I couldn't find any server called %v. Please be aware that capitalization counts!"
	VerifyHelpMessage    = "To verify with a server, send a message with the following format: `verify \"<server_name>\" \"<role>\"`.\n" +
		"If the server has set up OCR verification, more help will be provided."
	NoRoleMessage          = "The role requested could not be found."
	NoImageMessage         = "The verification process needs to have an image of png or jpg format attached."
	PendingMessage         = "We are currently verifying your request. Please be patient."
	AlreadyVerifiedMessage = "You have already been verified! You cannot re-verify."
	AlreadyHaveRoleMessage = "You already have this role! You cannot verify."
	VerifyingMessage       = "Verifying ... Please note this may take a while."
	VerifiedMessage        = "You have been verified!"
	DeniedMessage          = "Invalid verification!"
	PipelineErrorMessage   = "Verification could not be completed due to an internal error. Your request was not judged; please try again."
	InternalErrorMessage   = "Internal error. Please try again later."
	InvalidSyntaxMessage   = "The syntax of the verify command was invalid. " + VerifyHelpMessage
)

func init() {
	bot.RegisterCommands("verify", Verify)
}

// Verify drives the whole conversational flow. There is no step memory: each
// message carries enough quoted arguments to jump straight to its step, and
// the only server-side state is the stored verification status.
func Verify(b *bot.Bot, m *model.Message, args []string) {
	switch len(args) {
	case 0:
		_, _ = b.Reply(m, VerifyHelpMessage)
	case 1:
		guildID, ok := checkGuildMember(b, m, args[0])
		if !ok {
			return
		}
		help, err := b.Store.GetHelpText(guildID, "")
		if err != nil {
			log.Warn("Verify: %v", err)
			_, _ = b.Reply(m, InternalErrorMessage)
			return
		}
		_, _ = b.Reply(m, help)
	case 2:
		guildID, ok := checkGuildMember(b, m, args[0])
		if !ok {
			return
		}
		if _, err := b.Store.GetRule(guildID, args[1]); err != nil {
			_, _ = b.Reply(m, NoRoleMessage)
			return
		}
		help, err := b.Store.GetHelpText(guildID, args[1])
		if err != nil {
			log.Warn("Verify: %v", err)
			_, _ = b.Reply(m, InternalErrorMessage)
			return
		}
		_, _ = b.Reply(m, help)
	case 3:
		runVerification(b, m, args[0], args[1], args[2])
	default:
		_, _ = b.Reply(m, InvalidSyntaxMessage)
	}
}

func runVerification(b *bot.Bot, m *model.Message, guildName, roleName, suppliedName string) {
	guildID, ok := checkGuildMember(b, m, guildName)
	if !ok {
		return
	}
	rule, err := b.Store.GetRule(guildID, roleName)
	if err != nil {
		_, _ = b.Reply(m, NoRoleMessage)
		return
	}

	status, present, err := b.Store.GetStatus(guildID, m.AuthorID)
	if err != nil {
		log.Warn("runVerification: %v", err)
		_, _ = b.Reply(m, InternalErrorMessage)
		return
	}
	hasRole, err := b.Platform.MemberHasRole(guildID, m.AuthorID, roleName)
	if err != nil {
		log.Warn("runVerification: has role: %v", err)
		_, _ = b.Reply(m, InternalErrorMessage)
		return
	}
	if present {
		switch status.Status {
		case model.StatePending:
			_, _ = b.Reply(m, PendingMessage)
			return
		case model.StateVerified:
			if hasRole {
				_, _ = b.Reply(m, AlreadyVerifiedMessage)
				return
			}
			// the role was taken away since: treat as un-verified and let the
			// pipeline run again, without extra notification
		}
	} else if hasRole {
		// status repair: the user holds the role but the store lost track
		if err := b.Store.SetStatus(guildID, m.AuthorID, model.StateVerified, m.Username); err != nil {
			log.Warn("runVerification: %v", err)
		}
		_, _ = b.Reply(m, AlreadyHaveRoleMessage)
		return
	}

	// deliberate single-attachment contract: only the first attachment counts
	att, ok := firstImageAttachment(m)
	if !ok {
		_, _ = b.Reply(m, NoImageMessage)
		return
	}

	if err := b.Store.SetStatus(guildID, m.AuthorID, model.StatePending, m.Username); err != nil {
		log.Warn("runVerification: %v", err)
		_, _ = b.Reply(m, InternalErrorMessage)
		return
	}
	_, _ = b.Reply(m, VerifyingMessage)

	verdict, err := b.Verifier.Verify(context.Background(), att.URL, suppliedName, rule)
	if err != nil {
		// never leave the pending mark stranded: roll back to absent so the
		// user can retry right away
		log.Error("runVerification: guild %v user %v: %v", guildID, m.AuthorID, err)
		if err := b.Store.SetStatus(guildID, m.AuthorID, model.StateDenied, m.Username); err != nil {
			log.Warn("runVerification: rollback: %v", err)
		}
		_, _ = b.Reply(m, PipelineErrorMessage)
		return
	}
	if !verdict {
		if err := b.Store.SetStatus(guildID, m.AuthorID, model.StateDenied, m.Username); err != nil {
			log.Warn("runVerification: %v", err)
		}
		_, _ = b.Reply(m, DeniedMessage)
		return
	}
	if err := b.Store.SetStatus(guildID, m.AuthorID, model.StateVerified, m.Username); err != nil {
		log.Warn("runVerification: %v", err)
	}
	if err := b.Platform.AddRoleByName(guildID, m.AuthorID, roleName); err != nil {
		log.Warn("runVerification: add role %v: %v", roleName, err)
	}
	_, _ = b.Reply(m, VerifiedMessage)
}

func checkGuildMember(b *bot.Bot, m *model.Message, guildName string) (guildID string, ok bool) {
	id, found := b.Platform.GuildIDByName(guildName)
	if !found {
		_, _ = b.Reply(m, fmt.Sprintf(GuildNotFoundMessage, guildName))
		return "", false
	}
	member, err := b.Platform.IsMember(id, m.AuthorID)
	if err != nil {
		log.Warn("checkGuildMember: %v", err)
		_, _ = b.Reply(m, InternalErrorMessage)
		return "", false
	}
	if !member {
		_, _ = b.Reply(m, fmt.Sprintf(GuildNotFoundMessage, guildName))
		return "", false
	}
	return id, true
}

func firstImageAttachment(m *model.Message) (model.Attachment, bool) {
	if len(m.Attachments) == 0 {
		return model.Attachment{}, false
	}
	att := m.Attachments[0]
	switch strings.ToLower(filepath.Ext(att.Name)) {
	case ".png", ".jpg", ".jpeg":
		return att, true
	}
	return model.Attachment{}, false
}
