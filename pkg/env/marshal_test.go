package env

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nested struct {
	Host string `env:"REDIS_HOST"`
	Port int    `env:"REDIS_PORT"`
}

type sample struct {
	Method    string        `env:"MEMORY_METHOD,required"`
	Threshold float64       `env:"IMPORTANCE_THRESHOLD"`
	TTL       time.Duration `env:"SHORT_TTL"`
	Keywords  []string      `env:"KEYWORDS"`
	Debug     bool          `env:"DEBUG"`
	Skipped   string        `env:"EMPTY"`
	Redis     nested
	internal  string
}

func TestMarshalEnv(t *testing.T) {
	s := &sample{
		Method:    "redis",
		Threshold: 0.7,
		TTL:       90 * time.Second,
		Keywords:  []string{"happy", "sad"},
		Redis:     nested{Host: "localhost", Port: 6379},
		internal:  "hidden",
	}

	out, err := MarshalEnv(s)
	require.NoError(t, err)

	assert.Equal(t, "MEMORY_METHOD=redis\n"+
		"IMPORTANCE_THRESHOLD=0.7\n"+
		"SHORT_TTL=1m30s\n"+
		"KEYWORDS=happy,sad\n"+
		"REDIS_HOST=localhost\n"+
		"REDIS_PORT=6379\n", out)
}

func TestMarshalEnv_RejectsNonPointer(t *testing.T) {
	_, err := MarshalEnv(sample{})
	assert.Error(t, err)
}
