// Package api maps engine errors to the stable messages shown by adapters.
//
// Messages never carry file paths, wrapped causes or anything that would let
// a caller tell a wrong master key from damaged content.
package api

import (
	"errors"
	"strings"

	"github.com/forest6511/pawnvault/pkg/backup"
	"github.com/forest6511/pawnvault/pkg/vault"
)

// Stable messages for errors whose cause is not shown.
const (
	MsgIncorrectMasterKey = "incorrect master key"
	MsgStorage            = "unexpected storage error"
	MsgTooLarge           = "vault content exceeds the maximum size"
)

var backupErrors = []error{
	backup.ErrInvalidMagic,
	backup.ErrUnsupportedVersion,
	backup.ErrIntegrityFailed,
	backup.ErrTruncated,
}

// Message returns the user-facing text for err. A nil error yields "".
func Message(err error) string {
	if err == nil {
		return ""
	}
	switch vault.KindOf(err) {
	case vault.KindValidation, vault.KindExistence:
		return strings.TrimPrefix(err.Error(), "vault: ")
	case vault.KindCrypto:
		return MsgIncorrectMasterKey
	}
	if errors.Is(err, vault.ErrVaultTooLarge) {
		return MsgTooLarge
	}
	for _, target := range backupErrors {
		if errors.Is(err, target) {
			return target.Error()
		}
	}
	return MsgStorage
}

// Code returns a short machine-readable class for err, for structured outputs.
func Code(err error) string {
	if err == nil {
		return ""
	}
	for _, target := range backupErrors {
		if errors.Is(err, target) {
			return "backup"
		}
	}
	return vault.KindOf(err).String()
}
