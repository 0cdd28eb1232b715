package worker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// command runs an external optimizer binary.
type command struct {
	bin      string
	path     string
	nicePath string
	nice     int
	// inPlace tools rewrite their argument, so src is copied to dst first.
	inPlace bool
	args    func(src, dst string) []string
}

func newCommand(bin string, env Env, inPlace bool, args func(src, dst string) []string) (Worker, error) {
	path, err := env.lookPath(bin)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", bin, ErrBinaryNotFound)
	}
	c := &command{bin: bin, path: path, inPlace: inPlace, args: args}
	if env.Nice > 0 {
		if nicePath, err := env.lookPath("nice"); err == nil {
			c.nicePath = nicePath
			c.nice = env.Nice
		}
	}
	return c, nil
}

func (c *command) Bin() string { return c.bin }

func (c *command) Optimize(ctx context.Context, src, dst string) (bool, error) {
	if c.inPlace {
		if err := copyFile(src, dst); err != nil {
			return false, err
		}
	}

	name, argv := c.commandLine(src, dst)
	cmd := exec.CommandContext(ctx, name, argv...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return false, fmt.Errorf("%s: %w: %s", c.bin, err, msg)
		}
		return false, fmt.Errorf("%s: %w", c.bin, err)
	}
	return true, nil
}

func (c *command) commandLine(src, dst string) (string, []string) {
	args := c.args(src, dst)
	if c.nicePath == "" {
		return c.path, args
	}
	return c.nicePath, append([]string{"-n", strconv.Itoa(c.nice), c.path}, args...)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

func newOptiPNG(opts Options, env Env) (Worker, error) {
	level := opts.Int("level")
	if err := intInRange("optipng", "level", level, 0, 7); err != nil {
		return nil, err
	}
	interlace := opts.OptionalBool("interlace")
	strip := opts.Bool("strip")

	return newCommand("optipng", env, true, func(_, dst string) []string {
		args := []string{"-o" + strconv.Itoa(level), "-quiet"}
		if interlace != nil {
			if *interlace {
				args = append(args, "-i1")
			} else {
				args = append(args, "-i0")
			}
		}
		if strip {
			args = append(args, "-strip", "all")
		}
		return append(args, "--", dst)
	})
}

func newJPEGOptim(opts Options, env Env) (Worker, error) {
	quality := opts.Int("max_quality")
	if err := intInRange("jpegoptim", "max_quality", quality, 0, 100); err != nil {
		return nil, err
	}
	strip := opts.List("strip")
	for _, s := range strip {
		switch s {
		case "all", "com", "exif", "iptc", "icc", "xmp":
		default:
			return nil, &OptionError{Worker: "jpegoptim", Option: "strip", Reason: fmt.Sprintf("has unknown marker type %q", s)}
		}
	}
	lossy := opts.Bool("allow_lossy")

	return newCommand("jpegoptim", env, true, func(_, dst string) []string {
		args := []string{"--quiet"}
		for _, s := range strip {
			args = append(args, "--strip-"+s)
		}
		if lossy && quality < 100 {
			args = append(args, "--max="+strconv.Itoa(quality))
		}
		return append(args, "--", dst)
	})
}

func newGifsicle(opts Options, env Env) (Worker, error) {
	level := opts.Int("level")
	if err := intInRange("gifsicle", "level", level, 1, 3); err != nil {
		return nil, err
	}
	interlace := opts.Bool("interlace")
	careful := opts.Bool("careful")

	return newCommand("gifsicle", env, false, func(src, dst string) []string {
		args := []string{"--no-warnings", "--no-app-extensions", "-O" + strconv.Itoa(level)}
		if interlace {
			args = append(args, "--interlace")
		} else {
			args = append(args, "--no-interlace")
		}
		if careful {
			args = append(args, "--careful")
		}
		return append(args, "--output="+dst, src)
	})
}

func newSVGO(opts Options, env Env) (Worker, error) {
	disable := opts.List("disable_plugins")
	enable := opts.List("enable_plugins")

	return newCommand("svgo", env, false, func(src, dst string) []string {
		var args []string
		for _, p := range disable {
			args = append(args, "--disable="+p)
		}
		for _, p := range enable {
			args = append(args, "--enable="+p)
		}
		return append(args, "--input="+src, "--output="+dst)
	})
}
