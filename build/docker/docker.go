package docker

import (
	"bytes"
	"context"
	"os/exec"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/CoreumFoundation/coreum-tools/pkg/libexec"
	"github.com/CoreumFoundation/coreum-tools/pkg/logger"
)

// Label attached to every docker resource created by forge, used later to find them during purge.
const (
	LabelKey   = "com.treescope.forge"
	LabelValue = "forge"
)

// VolumePrefix is the name prefix of volumes created for dist builds.
const VolumePrefix = "forge-"

// ImageExists checks whether the image is present in the local daemon.
func ImageExists(ctx context.Context, image string) (bool, error) {
	imageBuf := &bytes.Buffer{}
	imageCmd := exec.Command("docker", "images", "-q", image)
	imageCmd.Stdout = imageBuf
	if err := libexec.Exec(ctx, imageCmd); err != nil {
		return false, errors.Wrapf(err, "failed to list image '%s'", image)
	}
	return imageBuf.Len() > 0, nil
}

// BuildImage builds image from dockerfile passed on stdin.
func BuildImage(ctx context.Context, image string, dockerfile []byte) error {
	logger.Get(ctx).Info("Building docker image", zap.String("image", image))

	buildCmd := exec.Command("docker", "build",
		"--label", LabelKey+"="+LabelValue,
		"--tag", image,
		"-",
	)
	buildCmd.Stdin = bytes.NewReader(dockerfile)

	if err := libexec.Exec(ctx, buildCmd); err != nil {
		return errors.Wrapf(err, "failed to build image '%s'", image)
	}
	return nil
}
