package hwmon

import (
	"fmt"
	"github.com/md14454/gosensors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	BusTypeIsa  = 1
	BusTypePci  = 2
	BusTypeAcpi = 5
)

type Chip struct {
	Name     string
	Platform string
	Path     string

	Sensors []*TempSensor
}

type TempSensor struct {
	Label string
	// 1-based index of the sensor on its chip
	Index int
	// sysfs path of the input attribute, millidegrees celsius
	Input string
	Value float64
}

// GetChips lists all lm-sensors chips that provide at least one temperature input
func GetChips() []*Chip {
	gosensors.Init()
	defer gosensors.Cleanup()
	chips := gosensors.GetDetectedChips()

	var list []*Chip
	for i := 0; i < len(chips); i++ {
		chip := chips[i]

		identifier := computeIdentifier(chip)
		platform := findPlatform(chip.Path)
		if len(platform) <= 0 {
			platform = identifier
		}

		sensorList := GetTempSensors(chip)
		if len(sensorList) <= 0 {
			continue
		}

		list = append(list, &Chip{
			Name:     identifier,
			Platform: platform,
			Path:     chip.Path,
			Sensors:  sensorList,
		})
	}

	return list
}

func GetTempSensors(chip gosensors.Chip) []*TempSensor {
	var sensorList []*TempSensor

	features := chip.GetFeatures()
	for j := 0; j < len(features); j++ {
		feature := features[j]
		if feature.Type != gosensors.FeatureTypeTemp {
			continue
		}

		inputSubFeature, ok := findSubFeature(feature.GetSubFeatures(), gosensors.SubFeatureTypeTempInput)
		if !ok {
			continue
		}

		sensorList = append(sensorList, &TempSensor{
			Label: getLabel(chip.Path, inputSubFeature.Name),
			Index: len(sensorList) + 1,
			Input: fmt.Sprintf("%s/%s", chip.Path, inputSubFeature.Name),
			Value: inputSubFeature.GetValue(),
		})
	}

	return sensorList
}

// FindTempSensor returns the sensor with the given index on the first chip
// whose platform or name matches the platform regex
func FindTempSensor(chips []*Chip, platform string, index int) (*TempSensor, error) {
	platformRegex, err := regexp.Compile(platform)
	if err != nil {
		return nil, fmt.Errorf("invalid platform pattern '%s': %w", platform, err)
	}

	for _, chip := range chips {
		if !platformRegex.MatchString(chip.Platform) && !platformRegex.MatchString(chip.Name) {
			continue
		}
		for _, sensor := range chip.Sensors {
			if sensor.Index == index {
				return sensor, nil
			}
		}
		return nil, fmt.Errorf("chip %s has no temperature sensor with index %d", chip.Name, index)
	}

	return nil, fmt.Errorf("no hwmon chip matching platform '%s' found", platform)
}

func findSubFeature(subfeatures []gosensors.SubFeature, input gosensors.SubFeatureType) (gosensors.SubFeature, bool) {
	for _, a := range subfeatures {
		if a.Type == input {
			return a, true
		}
	}
	return gosensors.SubFeature{}, false
}

// getLabel read the label of a in/output of a device
func getLabel(devicePath string, input string) string {
	labelPath := strings.TrimSuffix(devicePath+"/"+input, "input") + "label"

	content, _ := os.ReadFile(labelPath)
	label := string(content)
	if len(label) <= 0 {
		_, label = filepath.Split(devicePath)
	}
	return strings.TrimSpace(label)
}

func computeIdentifier(chip gosensors.Chip) (name string) {
	name = chip.Prefix

	devicePath := chip.Path
	if len(name) <= 0 {
		_, name = filepath.Split(devicePath)
	}

	identifier := name
	switch chip.Bus.Type {
	case BusTypeIsa:
		identifier = fmt.Sprintf("%s-isa-%d", identifier, chip.Bus.Nr)
	case BusTypePci:
		identifier = fmt.Sprintf("%s-pci-%d", identifier, chip.Bus.Nr)
	case BusTypeAcpi:
		identifier = fmt.Sprintf("%s-acpi-%d", identifier, chip.Bus.Nr)
	}

	return identifier
}

func findPlatform(devicePath string) string {
	platformRegex := regexp.MustCompile(".*/platform/{}/.*")
	return platformRegex.FindString(devicePath)
}
