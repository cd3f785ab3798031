package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/asaskevich/govalidator"
	"github.com/e1732a364fed/xray_launcher/machine"
	"github.com/e1732a364fed/xray_launcher/utils"
	"github.com/manifoldco/promptui"
)

var errAborted = errors.New("aborted")

func validateDomain(s string) error {
	if !govalidator.IsDNSName(s) {
		return errors.New("not a valid domain")
	}
	return nil
}

func validateUUID(s string) error {
	if s != "" && !govalidator.IsUUID(s) {
		return errors.New("not a valid uuid")
	}
	return nil
}

func validatePort(s string) error {
	p, err := strconv.Atoi(s)
	if err != nil || p < 0 || p > 65535 {
		return utils.ErrInvalidData
	}
	return nil
}

func validateName(s string) error {
	if s == "" {
		return errors.New("name is empty")
	}
	return nil
}

// interactivelyGenerateConf asks for the [app] values and writes a full config to fn.
func interactivelyGenerateConf(fn string) error {
	conf := machine.DefaultConf()

	if utils.FileExist(fn) {
		confirm := promptui.Prompt{
			Label:     fmt.Sprintf("%s already exists, overwrite", fn),
			IsConfirm: true,
		}
		if _, err := confirm.Run(); err != nil {
			return errAborted
		}
	}

	ask := func(label, def string, validate promptui.ValidateFunc) (string, error) {
		p := promptui.Prompt{Label: label, Default: def, Validate: validate}
		return p.Run()
	}

	var err error
	if conf.App.Domain, err = ask("Domain (proxied by Cloudflare)", conf.App.Domain, validateDomain); err != nil {
		return err
	}

	utils.PrintStr("留空则每次启动随机生成 uuid\n")
	if conf.App.UUID, err = ask("UUID", "", validateUUID); err != nil {
		return err
	}

	utils.PrintStr("0 表示使用面板分配的 SERVER_PORT\n")
	portStr, err := ask("Listen port", "0", validatePort)
	if err != nil {
		return err
	}
	conf.App.Port, _ = strconv.Atoi(portStr)

	if conf.App.Name, err = ask("Node name", conf.App.Name, validateName); err != nil {
		return err
	}

	yesNo := []string{"no", "yes"}
	for _, q := range []struct {
		label string
		dst   *bool
	}{
		{"Print the link as a qr code", &conf.App.QRCode},
		{"Check that the domain resolves into the Cloudflare edge", &conf.App.EdgeCheck},
	} {
		sel := promptui.Select{Label: q.label, Items: yesNo}
		i, _, err := sel.Run()
		if err != nil {
			return err
		}
		*q.dst = i == 1
	}

	if err = writeConfFile(fn, conf); err != nil {
		return err
	}
	fmt.Printf("config written to %s\n", fn)
	return nil
}

func writeConfFile(fn string, conf machine.Conf) error {
	if err := conf.Validate(); err != nil {
		return err
	}
	f, err := os.Create(fn)
	if err != nil {
		return err
	}
	if err = toml.NewEncoder(f).Encode(conf); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
