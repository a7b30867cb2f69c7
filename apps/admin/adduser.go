package main

import (
	"time"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

// addUser updates or creates a user.User
func (cli *commandLine) addUser(uname, email, pwd string, isAdmin bool) error {
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)

	usr, err := cli.usrRepo.GetUserByUsernameOrEmail(uname)
	if err == user.ErrNotFound {
		usr, err = cli.usrRepo.GetUserByUsernameOrEmail(email)
	}
	if err != nil && err != user.ErrNotFound {
		return err
	}
	exists := err == nil

	usr.Username = uname
	usr.Email = email
	usr.IsActive = true
	if isAdmin {
		usr.Roles = user.AllRoles
	}
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}

	if exists {
		usr.UpdatedAt = time.Now().UTC()
		isActive := true
		_, err = cli.usrRepo.UpdateUser(usr, &isActive)
	} else {
		now := time.Now().UTC()
		usr.CreatedAt = now
		usr.UpdatedAt = now
		_, err = cli.usrRepo.CreateUser(usr)
	}
	return err
}
