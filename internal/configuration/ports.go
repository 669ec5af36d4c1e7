package configuration

import "time"

const (
	DefaultBaudRate = 115200
)

type PortConfig struct {
	Serial    *SerialPortConfig    `json:"serial,omitempty"`
	File      *FilePortConfig      `json:"file,omitempty"`
	Cmd       *CmdPortConfig       `json:"cmd,omitempty"`
	Hwmon     *HwmonPortConfig     `json:"hwmon,omitempty"`
	Simulated *SimulatedPortConfig `json:"simulated,omitempty"`
}

type SerialPortConfig struct {
	Device   string `json:"device"`
	BaudRate int    `json:"baudRate"`
	// analog input channel index
	Input int `json:"input"`
	// analog output channel or digital output line index
	Output  int           `json:"output"`
	Timeout time.Duration `json:"timeout"`
}

type FilePortConfig struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

type CmdPortConfig struct {
	Acquire *ExecConfig   `json:"acquire,omitempty"`
	Actuate *ExecConfig   `json:"actuate,omitempty"`
	Timeout time.Duration `json:"timeout"`
}

type ExecConfig struct {
	Exec string   `json:"exec"`
	Args []string `json:"args"`
}

type HwmonPortConfig struct {
	// regex matched against the lm-sensors chip identifier
	Platform string `json:"platform"`
	// 1-based index of the temperature sensor on the chip
	Index int `json:"index"`
	// sysfs path the command is written to
	Output string `json:"output"`
}

type SimulatedPortConfig struct {
	Initial float64 `json:"initial"`
	Ambient float64 `json:"ambient"`
	Gain    float64 `json:"gain"`
	// seconds
	TimeConstant float64 `json:"timeConstant"`
	Noise        float64 `json:"noise"`
	Seed         int64   `json:"seed"`
}
