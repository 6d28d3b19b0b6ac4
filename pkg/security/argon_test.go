package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateFromPassword(t *testing.T) {
	a := NewArgon()

	hash, err := a.GenerateFromPassword("correct horse battery staple")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"))
	assert.NotContains(t, hash, "correct horse battery staple")

	// A fresh salt every time means no two hashes match
	hash2, err := a.GenerateFromPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.NotEqual(t, hash, hash2)
}

func TestVerifyPasswd(t *testing.T) {
	a := NewArgon()

	hash, err := a.GenerateFromPassword("hunter22hunter22")
	require.NoError(t, err)

	ok, err := a.VerifyPasswd("hunter22hunter22", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = a.VerifyPasswd("hunter23hunter23", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyPasswdMalformedHash(t *testing.T) {
	a := NewArgon()

	_, err := a.VerifyPasswd("whatever", "not-a-phc-string")
	assert.Error(t, err)

	_, err = a.VerifyPasswd("whatever", "$argon2id$v=19$m=65536,t=3,p=2$!!!$!!!")
	assert.Error(t, err)
}
