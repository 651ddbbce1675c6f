package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand/v2"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/limaJavier/invigilation/pkg/model"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

const executablePath = "../../bin/invigilation"

type ResultType int

const (
	solved ResultType = iota
	infeasible
	rejected
)

var resultTypes = map[ResultType]string{
	solved:     "solved",
	infeasible: "infeasible",
	rejected:   "rejected",
}

// Profile is a weighting of the objective terms
type Profile struct {
	Name             string
	PreferenceWeight float64
	FairnessWeight   float64
}

type InstanceMetadata struct {
	Name     string
	Seed     uint64
	Sessions int
	Teachers int
	Demand   int
}

type BenchmarkResult struct {
	Profile       Profile
	Instance      InstanceMetadata
	Duration      int64
	Memory        float32
	CpuPercentage int64
	Result        ResultType
	Variance      float64
	Preference    float64
}

func main() {
	seedPtr := flag.Uint64("seed", 1, "Seed of the first generated instance")
	countPtr := flag.Int("instances", 3, "Number of instances per size")
	timeLimitPtr := flag.Int("time-limit", 30, "Time limit per run in seconds")
	flag.Parse()

	workDir, err := os.MkdirTemp("", "invigilation-benchmark-")
	if err != nil {
		log.Fatalf("cannot create working directory: %v", err)
	}
	defer os.RemoveAll(workDir)

	instances := getInstances(workDir, *seedPtr, *countPtr)
	profiles := getProfiles()
	results := make([]BenchmarkResult, 0, len(instances)*len(profiles))

	for _, profile := range profiles {
		configPath := writeProfile(workDir, profile, *timeLimitPtr)
		for _, instance := range instances {
			fmt.Printf("Benchmarking instance \"%v\" with profile \"%v\"\n", instance.Name, profile.Name)

			result := measure(configPath, instance)
			result.Profile = profile
			results = append(results, result)
		}
	}

	file, err := os.Create("benchmark_results.csv")
	if err != nil {
		log.Panicf("cannot create CSV file: %v", err)
	}
	defer file.Close()
	if err := toCsv(file, results); err != nil {
		log.Panicf("cannot write CSV: %v", err)
	}
}

func getProfiles() []Profile {
	return []Profile{
		{Name: "preference-only", PreferenceWeight: 1, FairnessWeight: 0},
		{Name: "balanced", PreferenceWeight: 1, FairnessWeight: 1},
		{Name: "fairness-only", PreferenceWeight: 0, FairnessWeight: 1},
	}
}

func getInstances(directory string, seed uint64, count int) []InstanceMetadata {
	sizes := [][2]int{{10, 8}, {20, 15}, {40, 25}}
	instances := make([]InstanceMetadata, 0, len(sizes)*count)

	for _, size := range sizes {
		for i := range count {
			instanceSeed := seed + uint64(i)
			input := generateInstance(rand.New(rand.NewPCG(instanceSeed, uint64(size[0]))), size[0], size[1])

			name := filepath.Join(directory, fmt.Sprintf("s%d-t%d-%d.json", size[0], size[1], instanceSeed))
			content, err := json.Marshal(input)
			if err != nil {
				log.Fatalf("cannot encode instance: %v", err)
			}
			if err := os.WriteFile(name, content, 0666); err != nil {
				log.Fatalf("cannot write instance: %v", err)
			}

			instances = append(instances, InstanceMetadata{
				Name:     name,
				Seed:     instanceSeed,
				Sessions: size[0],
				Teachers: size[1],
				Demand:   lo.SumBy(input.Sessions, func(session model.RawSession) int { return session.Required }),
			})
		}
	}
	return instances
}

// generateInstance spreads sessions over a week of morning and afternoon slots. Roughly a fifth of the sessions
// need a lab-tagged invigilator and a third of the teachers hold that tag
func generateInstance(random *rand.Rand, sessions, teachers int) model.RawInput {
	slots := [][2]string{{"08:30", "10:30"}, {"11:00", "13:00"}, {"14:00", "16:00"}}
	generated := model.RawInput{}

	for i := range sessions {
		slot := slots[random.IntN(len(slots))]
		session := model.RawSession{
			Id:       fmt.Sprintf("S%03d", i),
			Date:     fmt.Sprintf("2025-06-%02d", 2+random.IntN(5)),
			Start:    slot[0],
			End:      slot[1],
			Required: 1 + random.IntN(2),
		}
		if random.IntN(5) == 0 {
			session.Tags = []string{"lab"}
			session.Required = 1
		}
		generated.Sessions = append(generated.Sessions, session)
	}

	for i := range teachers {
		teacher := model.RawTeacher{
			Id:    fmt.Sprintf("T%03d", i),
			Grade: lo.Ternary(i%4 == 0, "professor", "assistant"),
		}
		if i%3 == 0 {
			teacher.Tags = []string{"lab"}
		}
		generated.Teachers = append(generated.Teachers, teacher)

		for _, session := range generated.Sessions {
			if random.Float32() < 0.25 {
				generated.Preferences = append(generated.Preferences, model.RawPreference{
					Teacher: teacher.Id,
					Session: session.Id,
					Score:   float64(1 + random.IntN(5)),
				})
			}
		}
	}
	return generated
}

func writeProfile(directory string, profile Profile, timeLimit int) string {
	content, err := yaml.Marshal(map[string]any{
		"time_limit_seconds": timeLimit,
		"preference_weight":  profile.PreferenceWeight,
		"fairness_weight":    profile.FairnessWeight,
		"log":                map[string]string{"level": "error"},
	})
	if err != nil {
		log.Fatalf("cannot encode profile: %v", err)
	}
	path := filepath.Join(directory, profile.Name+".yaml")
	if err := os.WriteFile(path, content, 0666); err != nil {
		log.Fatalf("cannot write profile: %v", err)
	}
	return path
}

func measure(configPath string, instance InstanceMetadata) (result BenchmarkResult) {
	result.Instance = instance
	cmd := exec.Command("/usr/bin/time", "-v", executablePath, "-config", configPath, "-file", instance.Name)

	var stdOut bytes.Buffer
	cmd.Stdout = &stdOut
	var stdErr bytes.Buffer
	cmd.Stderr = &stdErr

	cmd.Run()
	switch cmd.ProcessState.ExitCode() {
	case 10:
		result.Result = solved
		var roster model.Roster
		if err := json.Unmarshal(stdOut.Bytes(), &roster); err != nil {
			log.Fatalf("cannot decode roster of instance \"%v\": %v", instance.Name, err)
		}
		result.Variance = roster.Metrics.DutyVariance
		result.Preference = roster.Metrics.PreferenceScore
	case 20:
		result.Result = infeasible
	case 30:
		result.Result = rejected
	default:
		log.Fatalf("an error occurred during the execution of \"invigilation\" at instance \"%v\" using config \"%v\": %v\n", instance.Name, configPath, stdErr.String())
	}

	splits := strings.Split(stdErr.String(), "\n")
	getLine := func(substr string) string {
		line, ok := lo.Find(splits, func(line string) bool {
			return strings.Contains(strings.ToLower(line), substr)
		})
		if !ok {
			log.Fatalf("Substring \"%v\" could not be found", substr)
		}
		return line
	}

	result.Duration = parseDurationLine(getLine("wall clock"))
	result.Memory = parseMemoryLine(getLine("maximum resident set size"))
	result.CpuPercentage = parseCpuPercentageLine(getLine("percent of cpu"))
	return result
}

func toCsv(writer io.Writer, results []BenchmarkResult) error {
	csvWriter := csv.NewWriter(writer)

	header := []string{"Profile", "Preference Weight", "Fairness Weight", "Instance", "Seed", "Sessions", "Teachers", "Demand", "Duration(ms)", "Memory(MB)", "CPU(%)", "Result", "Duty Variance", "Preference Score"}
	if err := csvWriter.Write(header); err != nil {
		return err
	}

	for _, result := range results {
		record := []string{
			result.Profile.Name,
			fmt.Sprintf("%g", result.Profile.PreferenceWeight),
			fmt.Sprintf("%g", result.Profile.FairnessWeight),
			filepath.Base(result.Instance.Name),
			fmt.Sprintf("%d", result.Instance.Seed),
			fmt.Sprintf("%d", result.Instance.Sessions),
			fmt.Sprintf("%d", result.Instance.Teachers),
			fmt.Sprintf("%d", result.Instance.Demand),
			fmt.Sprintf("%d", result.Duration),
			fmt.Sprintf("%.1f", result.Memory),
			fmt.Sprintf("%d", result.CpuPercentage),
			resultTypes[result.Result],
			fmt.Sprintf("%.4f", result.Variance),
			fmt.Sprintf("%.1f", result.Preference),
		}
		if err := csvWriter.Write(record); err != nil {
			return err
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

func parseDurationLine(line string) int64 {
	durationStr := strings.Split(line, "(h:mm:ss or m:ss):")[1][1:]
	return parseDuration(durationStr)
}

func parseDuration(durationStr string) int64 {
	parts := strings.Split(durationStr, ":")
	secondsParts := strings.Split(parts[len(parts)-1], ".")
	seconds := lo.Must(strconv.Atoi(secondsParts[0]))
	hundredthOfSeconds := lo.Must(strconv.Atoi(secondsParts[1]))

	var minutes, hours int
	switch len(parts) {
	case 3: // h:mm:ss
		hours = lo.Must(strconv.Atoi(parts[0]))
		minutes = lo.Must(strconv.Atoi(parts[1]))
	case 2: // m:ss
		minutes = lo.Must(strconv.Atoi(parts[0]))
	default:
		log.Fatalf("unexpected duration format: %v", durationStr)
	}
	return int64(hours*3600+minutes*60+seconds)*1000 + int64(hundredthOfSeconds*10)
}

// Reported in KB
func parseMemoryLine(line string) float32 {
	memoryStr := strings.Split(line, ":")[1][1:]
	return float32(lo.Must(strconv.ParseFloat(memoryStr, 32))) / 1024
}

func parseCpuPercentageLine(line string) int64 {
	percentageStr := strings.Split(line, ":")[1][1:]
	percentageStr = percentageStr[:len(percentageStr)-1]
	return int64(lo.Must(strconv.Atoi(percentageStr)))
}
