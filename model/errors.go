package model

import "fmt"

var (
	GuildNotFoundErr        = fmt.Errorf("guild not found")
	NotAMemberErr           = fmt.Errorf("not a member of the guild")
	RoleNotConfiguredErr    = fmt.Errorf("role is not configured for verification")
	InvalidSyntaxErr        = fmt.Errorf("invalid command syntax")
	NoImageAttachedErr      = fmt.Errorf("no image attached")
	UnsupportedImageTypeErr = fmt.Errorf("unsupported image type")
	AlreadyPendingErr       = fmt.Errorf("verification already pending")
	AlreadyVerifiedErr      = fmt.Errorf("already verified")
	ImageFetchFailedErr     = fmt.Errorf("failed to fetch image")
	OcrFailedErr            = fmt.Errorf("text extraction failed")
	StorageIOFailedErr      = fmt.Errorf("storage i/o failed")
)
