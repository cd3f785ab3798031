package main

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/e1732a364fed/xray_launcher/machine"
	"github.com/e1732a364fed/xray_launcher/panel"
	"github.com/e1732a364fed/xray_launcher/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const layeredToml = `
[app]
domain = "file.example.com"
port = 1000
name = "FromFile"
uuid = "a684455c-b14f-11ea-bf0d-42010aaa0003"
`

// Layers are checked in one test since flags set on flag.CommandLine can't be unset.
func TestLoadConfLayering(t *testing.T) {
	defer func(old map[string]*flag.Flag, ll int, lf string) {
		utils.GivenFlags = old
		utils.LogLevel, utils.LogOutFileName = ll, lf
	}(utils.GivenFlags, utils.LogLevel, utils.LogOutFileName)
	utils.GivenFlags = map[string]*flag.Flag{}

	fn := filepath.Join(t.TempDir(), "launcher.toml")
	require.NoError(t, os.WriteFile(fn, []byte(layeredToml), 0o644))
	env := panel.MapLookup(map[string]string{
		machine.EnvPort: "2000",
		machine.EnvName: "FromEnv",
	})

	// defaults only
	c, err := loadConf(filepath.Join(t.TempDir(), "none.toml"), panel.MapLookup(nil))
	require.NoError(t, err)
	assert.Equal(t, machine.DefaultDomain, c.App.Domain)
	assert.Equal(t, 0, c.App.Port)

	// file, then env over file
	c, err = loadConf(fn, env)
	require.NoError(t, err)
	assert.Equal(t, "file.example.com", c.App.Domain)
	assert.Equal(t, 2000, c.App.Port)
	assert.Equal(t, "FromEnv", c.App.Name)
	assert.Equal(t, "a684455c-b14f-11ea-bf0d-42010aaa0003", c.App.UUID)

	// flags over env and file
	require.NoError(t, flag.CommandLine.Set("port", "3000"))
	require.NoError(t, flag.CommandLine.Set("domain", "flag.example.com"))
	require.NoError(t, flag.CommandLine.Set("metrics", "127.0.0.1:9100"))
	utils.GivenFlags = utils.GetGivenFlags(flag.CommandLine)

	c, err = loadConf(fn, env)
	require.NoError(t, err)
	assert.Equal(t, "flag.example.com", c.App.Domain)
	assert.Equal(t, 3000, c.App.Port)
	assert.Equal(t, "FromEnv", c.App.Name)
	assert.True(t, c.ApiServer.Enable)
	assert.Equal(t, "127.0.0.1:9100", c.ApiServer.Addr)
	require.NoError(t, c.Validate())
}

func TestLoadConfMissingGivenFile(t *testing.T) {
	defer func(old map[string]*flag.Flag) { utils.GivenFlags = old }(utils.GivenFlags)
	utils.GivenFlags = map[string]*flag.Flag{"c": {Name: "c"}}

	_, err := loadConf(filepath.Join(t.TempDir(), "none.toml"), panel.MapLookup(nil))
	assert.ErrorIs(t, err, utils.ErrWrongParameter)
}

func TestLoadConfLogSettings(t *testing.T) {
	defer func(old map[string]*flag.Flag, ll int, lf string) {
		utils.GivenFlags = old
		utils.LogLevel, utils.LogOutFileName = ll, lf
	}(utils.GivenFlags, utils.LogLevel, utils.LogOutFileName)
	utils.GivenFlags = map[string]*flag.Flag{}

	fn := filepath.Join(t.TempDir(), "launcher.toml")
	require.NoError(t, os.WriteFile(fn, []byte("[app]\nloglevel = 3\nlogfile = \"l.log\"\n"), 0o644))

	_, err := loadConf(fn, panel.MapLookup(nil))
	require.NoError(t, err)
	assert.Equal(t, utils.Log_error, utils.LogLevel)
	assert.Equal(t, "l.log", utils.LogOutFileName)
}

func TestWriteConfFile(t *testing.T) {
	c := machine.DefaultConf()
	c.App.Domain = "gen.example.com"
	c.App.Port = 4433
	c.App.QRCode = true

	fn := filepath.Join(t.TempDir(), "gen.toml")
	require.NoError(t, writeConfFile(fn, c))

	got, err := machine.LoadConfFile(fn)
	require.NoError(t, err)
	assert.Equal(t, c.App, got.App)
	assert.Equal(t, c.Network, got.Network)

	c.App.Domain = "bad domain"
	assert.Error(t, writeConfFile(fn, c))
}

func TestValidators(t *testing.T) {
	assert.NoError(t, validatePort("0"))
	assert.NoError(t, validatePort("65535"))
	assert.Error(t, validatePort("65536"))
	assert.Error(t, validatePort("x"))
	assert.NoError(t, validateUUID(""))
	assert.Error(t, validateUUID("nope"))
	assert.NoError(t, validateDomain("a.example.com"))
	assert.Error(t, validateName(""))
}
