package game

import (
	"fmt"
	"strings"
)

const (
	loginBanner = "╔══════════════════════════════════════╗\r\n" +
		"║              LUMENFORGE              ║\r\n" +
		"║    Shape the world from within it    ║\r\n" +
		"╚══════════════════════════════════════╝"
	loginTagline = "Builders welcome. Type 'redit' once you have the trowel."
)

// loginResult carries the identity and rights established at login.
type loginResult struct {
	Name    string
	Admin   bool
	Builder bool
}

func validateUsername(name string) error {
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if strings.ContainsAny(name, " \t\r\n") {
		return fmt.Errorf("name cannot contain spaces")
	}
	if len(name) > 24 {
		return fmt.Errorf("name must be 24 characters or fewer")
	}
	return nil
}

func validatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("password cannot be blank")
	}
	if len(password) < 6 {
		return fmt.Errorf("password must be at least 6 characters")
	}
	return nil
}

func granted(accounts *AccountManager, name string) loginResult {
	return loginResult{
		Name:    name,
		Admin:   accounts.IsAdmin(name),
		Builder: accounts.IsBuilder(name),
	}
}

func login(session *TelnetSession, accounts *AccountManager) (loginResult, error) {
	_ = session.WriteString(Ansi("\r\n" + Style(loginBanner, AnsiCyan, AnsiBold) + "\r\n"))
	_ = session.WriteString(Ansi(Style("\r\n"+loginTagline+"\r\n", AnsiGreen)))
	_ = session.WriteString(Ansi(Style("\r\nLogin required.\r\n", AnsiMagenta, AnsiBold)))
	for attempts := 0; attempts < 5; attempts++ {
		_ = session.WriteString(Ansi("\r\nUsername: "))
		username, err := session.ReadLine()
		if err != nil {
			return loginResult{}, err
		}
		username = Trim(username)
		if err := validateUsername(username); err != nil {
			_ = session.WriteString(Ansi(Style("\r\n"+err.Error(), AnsiYellow)))
			continue
		}
		if accounts.Exists(username) {
			for tries := 0; tries < 3; tries++ {
				_ = session.WriteString(Ansi("\r\nPassword: "))
				password, err := session.ReadLine()
				if err != nil {
					return loginResult{}, err
				}
				if accounts.Authenticate(username, Trim(password)) {
					_ = session.WriteString(Ansi(Style("\r\nWelcome back, "+username+"!", AnsiGreen)))
					return granted(accounts, username), nil
				}
				_ = session.WriteString(Ansi(Style("\r\nIncorrect password.", AnsiYellow)))
			}
			_ = session.WriteString(Ansi("\r\nToo many failed attempts.\r\n"))
			return loginResult{}, fmt.Errorf("authentication failed")
		}

		for {
			_ = session.WriteString(Ansi("\r\nSet a password: "))
			password, err := session.ReadLine()
			if err != nil {
				return loginResult{}, err
			}
			password = Trim(password)
			if err := validatePassword(password); err != nil {
				_ = session.WriteString(Ansi(Style("\r\n"+err.Error(), AnsiYellow)))
				continue
			}
			if err := accounts.Register(username, password); err != nil {
				_ = session.WriteString(Ansi(Style("\r\n"+err.Error(), AnsiYellow)))
				break
			}
			_ = session.WriteString(Ansi(Style("\r\nAccount created. Welcome, "+username+"!", AnsiGreen)))
			return granted(accounts, username), nil
		}
	}
	_ = session.WriteString(Ansi("\r\nLogin cancelled.\r\n"))
	return loginResult{}, fmt.Errorf("login cancelled")
}
