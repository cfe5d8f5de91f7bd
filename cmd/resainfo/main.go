package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/sirupsen/logrus"

	"github.com/Godric2010/resa/device"
	"github.com/Godric2010/resa/gfx"
	"github.com/Godric2010/resa/gfx/vkr"
	"github.com/Godric2010/resa/sysinfo"
)

var (
	validation = flag.Bool("validation", false, "Load the validation layer")
	indent     = flag.Bool("indent", true, "Indent the JSON output")
	host       = flag.Bool("host", false, "Include host system info")
)

type report struct {
	Host    *sysinfo.Info       `json:",omitempty"`
	Devices []device.Descriptor `json:"devices"`
}

func main() {
	flag.Parse()
	log := logrus.New()
	log.SetOutput(os.Stderr)

	ctx, err := vkr.NewContext(log, vkr.Headless{}, vkr.ContextConfig{
		ApplicationName: "resainfo",
		Kind:            gfx.DetectKind(runtime.GOOS),
		Validation:      *validation,
	})
	if err != nil {
		log.WithError(err).Fatal("failed to create graphics context")
	}
	defer ctx.Destroy()

	devices, err := device.Enumerate(log, ctx.Instance, ctx.Surface)
	if err != nil {
		log.WithError(err).Fatal("failed to enumerate devices")
	}

	out := report{Devices: devices}
	if *host {
		info := sysinfo.Collect()
		out.Host = &info
	}

	var bytes []byte
	if *indent {
		bytes, err = json.MarshalIndent(out, "", "  ")
	} else {
		bytes, err = json.Marshal(out)
	}
	if err != nil {
		log.WithError(err).Fatal("failed to encode devices")
	}
	fmt.Printf("%s\n", bytes)
}
