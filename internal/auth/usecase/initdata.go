package usecase

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// MaxInitDataAge is how long a signed initData payload stays
// acceptable after Telegram issued it.
const MaxInitDataAge = 24 * time.Hour

var (
	ErrInitDataSignature = errors.New("initData signature mismatch")
	ErrInitDataExpired   = errors.New("initData is too old")
)

// TelegramUser is the identity block Telegram embeds in initData.
type TelegramUser struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
}

// ValidateInitData verifies the HMAC signature Telegram puts on a Mini
// App's initData query string and returns the embedded user. The
// secret key is HMAC-SHA256 of the bot token keyed with "WebAppData",
// per the Bot API documentation.
func ValidateInitData(initData, botToken string, now time.Time) (*TelegramUser, error) {
	values, err := url.ParseQuery(initData)
	if err != nil {
		return nil, fmt.Errorf("malformed initData: %w", err)
	}

	gotHash := values.Get("hash")
	if gotHash == "" {
		return nil, errors.New("initData has no hash")
	}
	values.Del("hash")

	// Data-check string: sorted key=value pairs joined by newlines
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key+"="+values.Get(key))
	}
	checkString := strings.Join(pairs, "\n")

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))

	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(checkString))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(gotHash)) {
		return nil, ErrInitDataSignature
	}

	authDate, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
	if err != nil {
		return nil, errors.New("initData has no valid auth_date")
	}
	if now.Sub(time.Unix(authDate, 0)) > MaxInitDataAge {
		return nil, ErrInitDataExpired
	}

	userJSON := values.Get("user")
	if userJSON == "" {
		return nil, errors.New("initData has no user")
	}
	var user TelegramUser
	if err := json.Unmarshal([]byte(userJSON), &user); err != nil {
		return nil, fmt.Errorf("malformed initData user: %w", err)
	}
	if user.ID == 0 {
		return nil, errors.New("initData user has no id")
	}
	return &user, nil
}
