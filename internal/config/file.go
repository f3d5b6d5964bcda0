package config

import (
	"fmt"

	"github.com/hashicorp/hcl/v2/hclsimple"
)

// JobFile holds per-project defaults read from an HCL file, e.g.
//
//	out_dir   = "src/device_trezor/trezor/messages"
//	namespace = "hw.trezor.messages"
//	include   = ["protob"]
//
// Every attribute is optional; command-line flags take precedence.
type JobFile struct {
	OutDir    *string  `hcl:"out_dir,optional"`
	Namespace *string  `hcl:"namespace,optional"`
	Include   []string `hcl:"include,optional"`
	Force     *bool    `hcl:"force,optional"`
	Lang      *string  `hcl:"lang,optional"`
	Parser    *string  `hcl:"parser,optional"`
}

// LoadJobFile decodes an .hcl (or .json) job file.
func LoadJobFile(path string) (*JobFile, error) {
	var f JobFile
	if err := hclsimple.DecodeFile(path, nil, &f); err != nil {
		return nil, &ConfigError{Var: "job file", Value: path, Message: "could not be decoded", Cause: err}
	}
	return &f, nil
}

// String renders the job file for debug logging.
func (f *JobFile) String() string {
	str := func(p *string) string {
		if p == nil {
			return "<unset>"
		}
		return *p
	}
	force := "<unset>"
	if f.Force != nil {
		force = fmt.Sprint(*f.Force)
	}
	return fmt.Sprintf("out_dir=%s namespace=%s include=%v force=%s lang=%s parser=%s",
		str(f.OutDir), str(f.Namespace), f.Include, force, str(f.Lang), str(f.Parser))
}
