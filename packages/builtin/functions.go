package builtin

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Func func(args []string) any

type Registry struct {
	funcs map[string]Func
}

func NewRegistry() *Registry {
	r := &Registry{
		funcs: make(map[string]Func),
	}
	r.registerDefaults()
	return r
}

func (r *Registry) registerDefaults() {
	r.funcs["now"] = funcNow
	r.funcs["date"] = funcDate
	r.funcs["uuid"] = funcUUID
	r.funcs["env"] = funcEnv
	r.funcs["upper"] = funcUpper
	r.funcs["lower"] = funcLower
	r.funcs["trim"] = funcTrim
	r.funcs["repeat"] = funcRepeat
	r.funcs["base64"] = funcBase64
	r.funcs["base64Decode"] = funcBase64Decode
	r.funcs["md5"] = funcMD5
	r.funcs["sha256"] = funcSHA256
	r.funcs["urlEncode"] = funcURLEncode
	r.funcs["urlDecode"] = funcURLDecode
}

var funcCallPattern = regexp.MustCompile(`^(\w+)\((.*)\)$`)

func (r *Registry) Call(expr string) (any, bool) {
	matches := funcCallPattern.FindStringSubmatch(expr)
	if matches == nil {
		return nil, false
	}

	name := matches[1]
	argsStr := matches[2]

	fn, ok := r.funcs[name]
	if !ok {
		return nil, false
	}

	var args []string
	if argsStr != "" {
		args = parseArgs(argsStr)
	}

	return fn(args), true
}

// parseArgs splits a comma separated argument list, honouring single and
// double quotes.
func parseArgs(s string) []string {
	var args []string
	var current strings.Builder
	inQuote := false
	quoteChar := byte(0)

	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case !inQuote && (ch == '"' || ch == '\''):
			inQuote = true
			quoteChar = ch
		case inQuote && ch == quoteChar:
			inQuote = false
			quoteChar = 0
		case !inQuote && ch == ',':
			args = append(args, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteByte(ch)
		}
	}

	if current.Len() > 0 {
		args = append(args, strings.TrimSpace(current.String()))
	}

	return args
}

func first(args []string) string {
	if len(args) < 1 {
		return ""
	}
	return args[0]
}

func funcNow(_ []string) any {
	return time.Now().UTC().Format(time.RFC3339)
}

func funcDate(args []string) any {
	format := "2006-01-02"
	if len(args) >= 1 {
		format = args[0]
	}
	return time.Now().UTC().Format(format)
}

func funcUUID(_ []string) any {
	return uuid.New().String()
}

func funcEnv(args []string) any {
	return os.Getenv(first(args))
}

func funcUpper(args []string) any {
	return strings.ToUpper(first(args))
}

func funcLower(args []string) any {
	return strings.ToLower(first(args))
}

func funcTrim(args []string) any {
	return strings.TrimSpace(first(args))
}

func funcRepeat(args []string) any {
	if len(args) < 2 {
		return first(args)
	}
	n, err := strconv.Atoi(args[1])
	if err != nil || n < 0 {
		return args[0]
	}
	return strings.Repeat(args[0], n)
}

func funcBase64(args []string) any {
	return base64.StdEncoding.EncodeToString([]byte(first(args)))
}

func funcBase64Decode(args []string) any {
	decoded, err := base64.StdEncoding.DecodeString(first(args))
	if err != nil {
		return ""
	}
	return string(decoded)
}

func funcMD5(args []string) any {
	hash := md5.Sum([]byte(first(args)))
	return hex.EncodeToString(hash[:])
}

func funcSHA256(args []string) any {
	hash := sha256.Sum256([]byte(first(args)))
	return hex.EncodeToString(hash[:])
}

func funcURLEncode(args []string) any {
	return url.QueryEscape(first(args))
}

func funcURLDecode(args []string) any {
	decoded, err := url.QueryUnescape(first(args))
	if err != nil {
		return first(args)
	}
	return decoded
}
