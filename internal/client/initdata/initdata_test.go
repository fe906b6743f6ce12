package initdata

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/swappy/internal/server/authgate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const token = "123456:TEST"

func stubPassword(t *testing.T, tok string, err error) {
	t.Helper()
	old := readPassword
	t.Cleanup(func() { readPassword = old })
	readPassword = func(int) ([]byte, error) { return []byte(tok), err }
}

func TestBuild_Validates(t *testing.T) {
	now := time.Now()
	s, err := Build(Options{UserID: 42, FirstName: "Ada", Username: "ada", Token: token, Age: time.Minute}, now)
	require.NoError(t, err)

	p, err := authgate.ValidateAt([]byte(s), []byte(token), 30*time.Minute, now)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), p.ID)
	assert.Equal(t, "Ada", p.FirstName)
	assert.Equal(t, "ada", p.Username)

	_, err = authgate.ValidateAt([]byte(s), []byte(token), 30*time.Second, now)
	assert.ErrorIs(t, err, authgate.ErrTooOld)
}

func TestBuild_Errors(t *testing.T) {
	_, err := Build(Options{UserID: 42}, time.Now())
	assert.Error(t, err)

	_, err = Build(Options{Token: token}, time.Now())
	assert.Error(t, err)
}

func TestRun_TokenFromEnv(t *testing.T) {
	t.Setenv(TokenEnv, token)
	stubPassword(t, "", errors.New("must not prompt"))

	var out bytes.Buffer
	require.NoError(t, Run([]string{"-id", "7", "-first", "Bob"}, strings.NewReader(""), &out))

	_, err := authgate.Validate(bytes.TrimSpace(out.Bytes()), []byte(token), time.Minute)
	assert.NoError(t, err)
}

func TestRun_Prompts(t *testing.T) {
	t.Setenv(TokenEnv, "")
	stubPassword(t, token+"\n", nil)

	var out bytes.Buffer
	require.NoError(t, Run(nil, strings.NewReader("99\n"), &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	signed := lines[len(lines)-1]
	p, err := authgate.Validate([]byte(signed), []byte(token), time.Minute)
	require.NoError(t, err)
	assert.Equal(t, uint64(99), p.ID)
}

func TestRun_BadUserID(t *testing.T) {
	var out bytes.Buffer
	err := Run(nil, strings.NewReader("abc\n"), &out)
	assert.Error(t, err)
}

func TestRun_PasswordError(t *testing.T) {
	t.Setenv(TokenEnv, "")
	stubPassword(t, "", errors.New("boom"))

	var out bytes.Buffer
	assert.Error(t, Run([]string{"-id", "1"}, strings.NewReader(""), &out))
}

func TestGetSimpleTextEOF(t *testing.T) {
	in := bufio.NewReader(strings.NewReader("lastline"))
	var out bytes.Buffer
	got, err := GetSimpleText(in, "Name?", &out)
	require.NoError(t, err)
	assert.Equal(t, "lastline", got)
	assert.Equal(t, "Name?\n> ", out.String())
}
