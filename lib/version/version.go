// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"os"
	"runtime"

	"github.com/bureau-foundation/registry/lib/digest"
)

// Build stamps, overridden with -ldflags -X, for example:
//
//	go build -ldflags "-X github.com/bureau-foundation/registry/lib/version.GitCommit=$(git rev-parse --short HEAD)"
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	GitDirty  = "false" // "true" when the tree had local modifications
	BuildTime = "unknown"
)

// Info is the one-line form printed by --version.
func Info() string {
	commit := GitCommit
	if GitDirty == "true" {
		commit += "-dirty"
	}
	return fmt.Sprintf("%s (%s, %s)", Version, commit, BuildTime)
}

// Full extends [Info] with the toolchain and target platform.
func Full() string {
	return Info() + fmt.Sprintf("\n  Go: %s\n  Platform: %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// SelfDigest returns the hex SHA-256 of the running binary and the
// path it was resolved from.
func SelfDigest() (hexDigest string, binaryPath string, err error) {
	binaryPath, err = os.Executable()
	if err != nil {
		return "", "", fmt.Errorf("resolving executable path: %w", err)
	}
	sum, err := digest.HashFile(binaryPath)
	if err != nil {
		return "", "", err
	}
	return digest.Format(sum), binaryPath, nil
}
