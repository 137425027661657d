package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"compositor/host"
	"compositor/passscript"
)

// cullCommand runs one culling policy over a pass script and prints what
// is left.
func cullCommand(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("cull", flag.ContinueOnError)
	fs.SetOutput(stderr)
	policy := fs.String("policy", "cached", "Culling policy: cached or noquads")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("cull takes one script file, or - for stdin")
	}

	var src []byte
	var err error
	if name := fs.Arg(0); name == "-" {
		src, err = io.ReadAll(stdin)
	} else {
		src, err = os.ReadFile(name)
	}
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}

	script, err := passscript.Parse(string(src))
	if err != nil {
		return err
	}
	frame := host.NewFrameData()
	for _, p := range script.Passes {
		frame.AppendRenderPass(p)
	}

	switch *policy {
	case "cached":
		host.RemoveRenderPasses(host.CullRenderPassesWithCachedTextures{Renderer: script.Renderer}, frame)
	case "noquads":
		host.RemoveRenderPasses(host.CullRenderPassesWithNoQuads{}, frame)
	default:
		return fmt.Errorf("unknown policy %q", *policy)
	}
	_, err = io.WriteString(stdout, passscript.Dump(frame.RenderPasses))
	return err
}
