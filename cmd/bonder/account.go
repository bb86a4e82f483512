// Copyright 2020 Stafi Protocol
// SPDX-License-Identifier: LGPL-3.0-only

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"bonder-stake/config"

	log "github.com/ChainSafe/log15"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stafiprotocol/chainbridge/utils/crypto/secp256k1"
	"github.com/stafiprotocol/chainbridge/utils/keystore"
	"github.com/urfave/cli/v2"
)

func handleGenerateEthCmd(ctx *cli.Context) error {
	log.Info("Generating ethereum keyfile by private key...")
	path := ctx.String(config.KeystorePathFlag.Name)
	return generateKeyFileByPrivateKey(path)
}

// keypath example: /Homepath/bonder/keys
func generateKeyFileByPrivateKey(keypath string) error {
	key := keystore.GetPassword("Enter private key:")
	kp, err := secp256k1.NewKeypairFromString(strings.TrimPrefix(string(key), "0x"))
	if err != nil {
		return err
	}

	fp, err := filepath.Abs(keypath + "/" + kp.Address() + ".key")
	if err != nil {
		return fmt.Errorf("invalid filepath: %s", err)
	}

	file, err := os.OpenFile(filepath.Clean(fp), os.O_EXCL|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}

	defer func() {
		err = file.Close()
		if err != nil {
			log.Error("generate keypair: could not close keystore file")
		}
	}()

	password := keystore.GetPassword("password for key:")
	err = keystore.EncryptAndWriteToFile(file, kp, password)
	if err != nil {
		return fmt.Errorf("could not write key to file: %s", err)
	}

	log.Info("key generated", "address", kp.Address(), "type", "eth", "file", fp)
	return nil
}

// loadKeypair unlocks the bonder key; the password is prompted on the terminal.
func loadKeypair(bonder common.Address, keypath string) (*secp256k1.Keypair, error) {
	fmt.Printf("Will open bonder wallet from <%s>. \nPlease ", keypath)
	kpI, err := keystore.KeypairFromAddress(bonder.Hex(), keystore.EthChain, keypath, false)
	if err != nil {
		return nil, err
	}
	kp, ok := kpI.(*secp256k1.Keypair)
	if !ok {
		return nil, fmt.Errorf("keystore entry for %s is not an ethereum key", bonder.Hex())
	}
	if kp.CommonAddress() != bonder {
		return nil, fmt.Errorf("keystore entry %s does not match bonder %s", kp.CommonAddress().Hex(), bonder.Hex())
	}
	return kp, nil
}
