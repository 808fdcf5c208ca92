// Copyright 2021 Daniel Basedow. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	apkparser "github.com/dbasedow/apk"
	"github.com/spf13/cobra"
)

var (
	files    bool
	manifest bool
	cert     bool
	resource string
)

func parseAPK(filename string) {
	apk, err := apkparser.New(filename, &apkparser.Options{})
	if err != nil {
		log.Printf("Error while opening file: %s, reason: %s", filename, err)
		return
	}
	defer apk.Close()

	if err := apk.Parse(); err != nil {
		log.Printf("Error while parsing file: %s, reason: %s", filename, err)
		return
	}

	if files {
		dumpFiles(apk)
	}
	if manifest {
		dumpManifest(apk)
	}
	if resource != "" {
		dumpResource(apk, resource)
	}
	if cert {
		dumpCertificate(apk)
	}
}

func dumpFiles(apk *apkparser.File) {
	for _, f := range apk.Files() {
		fmt.Printf("%8d  %8d  %s\n", f.Len(), f.CompressedLen(), f.Name())
	}
}

func dumpManifest(apk *apkparser.File) {
	stream, err := apk.Manifest()
	if err != nil {
		log.Printf("Error opening manifest: %s", err)
		return
	}

	depth := 0
	for {
		event, err := stream.Next()
		if err == io.EOF {
			return
		}
		if err != nil {
			log.Printf("Error reading manifest: %s", err)
			return
		}

		switch e := event.(type) {
		case apkparser.NamespaceStart:
			fmt.Printf("%sxmlns:%s=%q\n", indent(depth), e.Prefix, e.URI)
		case apkparser.ElementStart:
			fmt.Printf("%s<%s>\n", indent(depth), e.Name)
			for _, attr := range e.Attributes {
				fmt.Printf("%s%s=%q\n", indent(depth+2), attr.Name, attr.Value.String())
			}
			depth++
		case apkparser.ElementEnd:
			depth--
			fmt.Printf("%s</%s>\n", indent(depth), e.Name)
		case apkparser.CharData:
			fmt.Printf("%s%s\n", indent(depth), e.Data)
		}
	}
}

func indent(depth int) string {
	return strings.Repeat("  ", depth)
}

func dumpResource(apk *apkparser.File, idArg string) {
	id, err := strconv.ParseUint(strings.TrimPrefix(idArg, "0x"), 16, 32)
	if err != nil {
		log.Printf("Invalid resource id %q", idArg)
		return
	}

	res := apk.Resources()
	if res == nil {
		log.Printf("Package has no resource table")
		return
	}

	resID := apkparser.ResID(id)
	typeName, _ := res.GetResourceType(resID)
	keyName, _ := res.GetKeyName(resID)
	fmt.Printf("%s %s/%s\n", resID, typeName, keyName)
	for _, cs := range res.GetStringByIDAllConfigs(resID) {
		fmt.Printf("  %s: %s\n", cs.Config, cs.Value)
	}
}

func dumpCertificate(apk *apkparser.File) {
	fingerprint, err := apk.CertificateFingerprintSHA256()
	if err != nil {
		log.Printf("Error reading certificate: %s", err)
		return
	}
	fmt.Printf("SHA-256: %s\n", hex.EncodeToString(fingerprint[:]))

	info, err := apk.CertificateInfo()
	if err != nil {
		if !errors.Is(err, apkparser.ErrInvalidCertificate) {
			log.Printf("Error reading certificate info: %s", err)
		}
		return
	}
	fmt.Printf("Subject: %s\n", info.Subject)
	fmt.Printf("Issuer:  %s\n", info.Issuer)
	fmt.Printf("Valid:   %s - %s\n", info.NotBefore, info.NotAfter)
	fmt.Printf("Serial:  %s\n", info.SerialNumber)
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "apkdumper [flags] apk...",
		Short: "apkdumper inspects Android application packages",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			for _, filename := range args {
				parseAPK(filename)
			}
		},
	}

	rootCmd.Flags().BoolVarP(&files, "files", "f", false, "List package members")
	rootCmd.Flags().BoolVarP(&manifest, "manifest", "m", false, "Dump the binary XML manifest")
	rootCmd.Flags().BoolVarP(&cert, "cert", "c", false, "Print the signer certificate fingerprint")
	rootCmd.Flags().StringVarP(&resource, "resource", "r", "", "Dump a resource by hex id")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
