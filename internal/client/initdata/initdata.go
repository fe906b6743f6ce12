// Package initdata produces signed mini-app init-data for local testing of
// the form endpoint, e.g.
//
//	curl -H "X-Telegram-Init-Data: $(initdata -id 42)" ...
package initdata

import (
	"bufio"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/dmitrijs2005/swappy/internal/common"
	"github.com/dmitrijs2005/swappy/internal/server/authgate"
)

// TokenEnv is consulted before prompting for the bot token.
const TokenEnv = "BOT_TOKEN"

type user struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
}

// Options describe the payload to sign.
type Options struct {
	UserID    int64
	FirstName string
	LastName  string
	Username  string
	Age       time.Duration
	Token     string
}

// Build returns url-encoded init-data for o signed with o.Token, dated o.Age
// before now.
func Build(o Options, now time.Time) (string, error) {
	if o.Token == "" {
		return "", errors.New("bot token is empty")
	}
	if o.UserID == 0 {
		return "", errors.New("user id is required")
	}

	u, err := json.Marshal(user{ID: o.UserID, FirstName: o.FirstName, LastName: o.LastName, Username: o.Username})
	if err != nil {
		return "", err
	}
	queryID, err := common.MakeRandHexString(8)
	if err != nil {
		return "", err
	}

	v := url.Values{}
	v.Set("query_id", queryID)
	v.Set("user", string(u))
	v.Set("auth_date", strconv.FormatInt(now.Add(-o.Age).Unix(), 10))
	return authgate.Sign(v, []byte(o.Token)), nil
}

// Run parses args, asks for whatever is missing on in/out and prints the
// init-data to out.
func Run(args []string, in io.Reader, out io.Writer) error {
	var o Options

	fs := flag.NewFlagSet("initdata", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.Int64Var(&o.UserID, "id", 0, "telegram user id")
	fs.StringVar(&o.FirstName, "first", "Test", "first name")
	fs.StringVar(&o.LastName, "last", "", "last name")
	fs.StringVar(&o.Username, "username", "", "username")
	fs.DurationVar(&o.Age, "age", 0, "how long ago the data was issued")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if o.UserID == 0 {
		raw, err := GetSimpleText(bufio.NewReader(in), "User id", out)
		if err != nil {
			return err
		}
		if o.UserID, err = strconv.ParseInt(raw, 10, 64); err != nil {
			return fmt.Errorf("bad user id %q: %w", raw, err)
		}
	}

	o.Token = os.Getenv(TokenEnv)
	if o.Token == "" {
		tok, err := GetToken(out)
		if err != nil {
			return err
		}
		o.Token = tok
	}

	s, err := Build(o, time.Now())
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, s)
	return err
}
