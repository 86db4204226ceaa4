package bot

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/EgorLis/trtl/pkg/blacket"
)

// сплит с поддержкой кавычек: !sell "Light Blue" 3
var reArg = regexp.MustCompile(`"([^"]*)"|(\S+)`)

var errNotAdmin = errors.New("admins only")

// сколько новостей показывает !news
const newsLimit = 3

func (bot *ChatBot) HandleCommand(ctx context.Context, author, text string) error {
	fields := splitArgs(text)
	if len(fields) == 0 {
		return nil
	}
	cmd := strings.ToLower(fields[0])

	say := func(s string) { bot.say(ctx, s) }
	admin := func() error {
		if !bot.cfg.isAdmin(author) {
			return errNotAdmin
		}
		return nil
	}

	switch cmd {

	case "!help":
		say(strings.Join([]string{
			"!help",
			"!user <name>",
			"!news",
			"!claim",
			"!open <pack>",
			"!sell <blook> [qty]",
			"!admin add|del|list [name]",
			"!save",
		}, " | "))
		return nil

	// ---------- справка ----------
	case "!user":
		if len(fields) < 2 {
			return fmt.Errorf("usage: !user <name>")
		}
		res, err := bot.client.FetchUser(ctx, fields[1])
		if err != nil {
			return err
		}
		if res.Failed() {
			return errors.New(res.Reason())
		}
		var u struct {
			User struct {
				Username string `json:"username"`
				Role     string `json:"role"`
				Tokens   int    `json:"tokens"`
			} `json:"user"`
		}
		if err := res.Decode(&u); err != nil {
			return err
		}
		line := fmt.Sprintf("%s: %d tokens", u.User.Username, u.User.Tokens)
		if u.User.Role != "" {
			line += " (" + u.User.Role + ")"
		}
		say(line)
		return nil

	case "!news":
		res, err := bot.client.FetchNews(ctx)
		if err != nil {
			return err
		}
		if res.Failed() {
			return errors.New(res.Reason())
		}
		var n struct {
			News []struct {
				Title string `json:"title"`
			} `json:"news"`
		}
		if err := res.Decode(&n); err != nil {
			return err
		}
		if len(n.News) == 0 {
			say("news: (empty)")
			return nil
		}
		var rows []string
		for i, item := range n.News {
			if i == newsLimit {
				break
			}
			rows = append(rows, item.Title)
		}
		say("news: " + strings.Join(rows, " | "))
		return nil

	// ---------- экономика ----------
	case "!claim":
		if err := admin(); err != nil {
			return err
		}
		res, err := bot.client.ClaimDailyReward(ctx)
		if err != nil {
			return err
		}
		say(resultLine("claim", res, "claimed"))
		return nil

	case "!open":
		if err := admin(); err != nil {
			return err
		}
		if len(fields) < 2 {
			return fmt.Errorf("usage: !open <pack>")
		}
		pack := fields[1]
		res, err := bot.client.OpenPack(ctx, pack)
		if err != nil {
			return err
		}
		var opened struct {
			Blook string `json:"blook"`
		}
		_ = res.Decode(&opened)
		say(resultLine("open", res, fmt.Sprintf("%s: %s", pack, opened.Blook)))
		return nil

	case "!sell":
		if err := admin(); err != nil {
			return err
		}
		if len(fields) < 2 {
			return fmt.Errorf("usage: !sell <blook> [qty]")
		}
		qty := 1
		if len(fields) >= 3 {
			v, err := strconv.Atoi(fields[2])
			if err != nil || v <= 0 {
				return fmt.Errorf("bad qty: %q", fields[2])
			}
			qty = v
		}
		res, err := bot.client.SellItem(ctx, fields[1], qty)
		if err != nil {
			return err
		}
		say(resultLine("sell", res, fmt.Sprintf("sold %d %s", qty, fields[1])))
		return nil

	// ---------- админы ----------
	case "!admin":
		if len(fields) < 2 {
			return fmt.Errorf("usage: !admin add|del|list [name]")
		}
		sub := strings.ToLower(fields[1])
		if sub == "list" {
			admins := bot.cfg.admins()
			if len(admins) == 0 {
				say("admins: (empty)")
				return nil
			}
			say("admins: " + strings.Join(admins, ", "))
			return nil
		}

		// первого админа может назначить кто угодно
		if bot.cfg.hasAdmins() {
			if err := admin(); err != nil {
				return err
			}
		}
		if len(fields) < 3 {
			return fmt.Errorf("usage: !admin %s <name>", sub)
		}
		name := fields[2]

		switch sub {
		case "add":
			if bot.cfg.addAdmin(name) {
				_ = bot.cfg.Save()
			}
			say("admin added: " + name)
			return nil
		case "del":
			if !bot.cfg.delAdmin(name) {
				return fmt.Errorf("%s is not an admin", name)
			}
			_ = bot.cfg.Save()
			say("admin deleted: " + name)
			return nil
		default:
			return fmt.Errorf("usage: !admin add|del|list [name]")
		}

	// ---------- SAVE ----------
	case "!save":
		if err := admin(); err != nil {
			return err
		}
		if err := bot.cfg.Save(); err != nil {
			return err
		}
		say("config saved")
		return nil

	default:
		return fmt.Errorf("unknown command. try !help")
	}
}

// resultLine — ok-текст или причина отказа сервера
func resultLine(op string, res blacket.Result, ok string) string {
	if res.Failed() {
		return fmt.Sprintf("%s failed: %s", op, res.Reason())
	}
	return ok
}

func splitArgs(s string) []string {
	var out []string
	for _, m := range reArg.FindAllStringSubmatch(s, -1) {
		if m[1] != "" {
			out = append(out, m[1])
		} else {
			out = append(out, m[2])
		}
	}
	return out
}
