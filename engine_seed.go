package huiauth

import (
	"context"
	"errors"

	"github.com/huiapp/huiauth/permission"
	"github.com/huiapp/huiauth/settings"
	"github.com/huiapp/huiauth/store"
)

// SeedRoles writes the role catalog (the built-in one unless
// [Builder.WithRoleCatalog] replaced it). Existing roles are overwritten
// with the catalog permissions.
func (e *Engine) SeedRoles(ctx context.Context) (int, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	descriptions := make(map[string]string)
	for _, def := range permission.Catalog() {
		descriptions[def.Name] = def.Description
	}

	n := 0
	for _, name := range e.catalog.Roles() {
		perms, _ := e.catalog.Permissions(name)
		err := e.roles.UpsertRole(ctx, store.Role{
			Name:        name,
			Description: descriptions[name],
			Permissions: perms,
		})
		if err != nil {
			return n, e.storeErr(err)
		}
		n++
	}
	return n, nil
}

// SeedSettings inserts the password policy rows from Config.PasswordPolicy.
// Rows that already exist are left untouched. It returns the number of
// rows created.
func (e *Engine) SeedSettings(ctx context.Context) (int, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	if e.settings == nil {
		return 0, errors.New("settings service is not configured")
	}
	n := 0
	for _, row := range settings.DefaultPasswordSettings(e.config.PasswordPolicy) {
		_, err := e.settings.CreateSetting(ctx, row)
		if errors.Is(err, store.ErrDuplicateKey) {
			continue
		}
		if err != nil {
			return n, e.storeErr(err)
		}
		n++
	}
	return n, nil
}
