package configuration

import "fmt"

const DefaultStatisticsPort = 9000

type ApiConfig struct {
	Enabled bool   `json:"enabled"`
	Host    string `json:"host"`
	Port    int    `json:"port"`
}

func (c ApiConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type StatisticsConfig struct {
	Enabled bool `json:"enabled"`
	Port    int  `json:"port"`
}

// Address listens on all interfaces, out of range ports fall back to DefaultStatisticsPort
func (c StatisticsConfig) Address() string {
	port := c.Port
	if port <= 0 || port >= 65535 {
		port = DefaultStatisticsPort
	}
	return fmt.Sprintf(":%d", port)
}
