package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateArgs(t *testing.T) {
	tests := []struct {
		name       string
		args       CommandLineArgs
		suffix     string
		wantErr    bool
		wantOutput string
		wantDir    string
	}{
		{
			name:       "single file auto output",
			args:       CommandLineArgs{InputFile: "cert.hwpx", Data: "{}"},
			wantOutput: "cert_processed.hwpx",
		},
		{
			name:       "custom suffix",
			args:       CommandLineArgs{InputFile: "dir/cert.hwpx", ModifyFile: "m.yaml"},
			suffix:     "_filled",
			wantOutput: "dir/cert_filled.hwpx",
		},
		{
			name:    "batch auto output dir",
			args:    CommandLineArgs{InputDir: "certs/", Data: "{}"},
			wantDir: "certs_processed",
		},
		{
			name:    "no input",
			args:    CommandLineArgs{Data: "{}"},
			wantErr: true,
		},
		{
			name:    "single and batch",
			args:    CommandLineArgs{InputFile: "a.hwpx", InputDir: "certs", Data: "{}"},
			wantErr: true,
		},
		{
			name:    "output without input",
			args:    CommandLineArgs{OutputFile: "a.hwpx", Data: "{}"},
			wantErr: true,
		},
		{
			name:    "output dir without input dir",
			args:    CommandLineArgs{OutputDir: "out", Data: "{}"},
			wantErr: true,
		},
		{
			name:    "no substitution input",
			args:    CommandLineArgs{InputFile: "a.hwpx"},
			wantErr: true,
		},
		{
			name:    "modify and data",
			args:    CommandLineArgs{InputFile: "a.hwpx", ModifyFile: "m.yaml", Data: "{}"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := tt.args
			err := ValidateArgs(&args, tt.suffix)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.wantOutput != "" {
				assert.Equal(t, tt.wantOutput, args.OutputFile)
			}
			if tt.wantDir != "" {
				assert.Equal(t, tt.wantDir, args.OutputDir)
			}
		})
	}
}

func TestGenerateOutputFileName(t *testing.T) {
	assert.Equal(t, "a_processed.docx", GenerateOutputFileName("a.docx", ""))
	assert.Equal(t, "a.v2_x.hwpx", GenerateOutputFileName("a.v2.hwpx", "_x"))
	assert.Equal(t, "noext_processed", GenerateOutputFileName("noext", ""))
}
