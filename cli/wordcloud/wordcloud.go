package wordcloud

import (
	"fmt"
	"image/color"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/bbalet/stopwords"
	"github.com/psykhi/wordclouds"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/lmeunier/confarc/configuration"
)

var (
	configFile string
	output     string
	maxWords   int
)

var DefaultColors = []color.RGBA{
	{0x1b, 0x1b, 0x1b, 0xff},
	{0x48, 0x48, 0x4B, 0xff},
	{0x59, 0x3a, 0xee, 0xff},
	{0x65, 0xCD, 0xFA, 0xff},
	{0x70, 0xD6, 0xBF, 0xff},
}

type Conf struct {
	FontMaxSize     int    `yaml:"font_max_size"`
	FontMinSize     int    `yaml:"font_min_size"`
	RandomPlacement bool   `yaml:"random_placement"`
	FontFile        string `yaml:"font_file"`
	Colors          []color.RGBA
	BackgroundColor color.RGBA `yaml:"background_color"`
	Width           int
	Height          int
	SizeFunction    *string `yaml:"size_function"`
	Debug           bool
}

var DefaultConf = Conf{
	FontMaxSize:     700,
	FontMinSize:     10,
	RandomPlacement: false,
	FontFile:        "./fonts/roboto/Roboto-Regular.ttf",
	Colors:          DefaultColors,
	BackgroundColor: color.RGBA{255, 255, 255, 255},
	Width:           4096,
	Height:          4096,
	Debug:           false,
}

func NewCommand() *cobra.Command {
	wordcloudCommand := &cobra.Command{
		Use:   "wordcloud",
		Short: "Create a word cloud from the archived posts",
		Run:   runWordcloudCommand,
	}

	wordcloudCommand.Flags().StringVar(&configFile, "config", "config.yaml", "Path to rendering config file")
	wordcloudCommand.Flags().StringVar(&output, "output", "wordcloud.png", "Path to output image")
	wordcloudCommand.Flags().IntVar(&maxWords, "max-words", 200, "Number of words to place")

	return wordcloudCommand
}

// artifactWords extracts the visible post text of every archived artifact
// and counts the non-stopword terms.
func artifactWords(root string) (map[string]int, error) {
	wordRe := regexp.MustCompile("[A-Za-z]+")
	inputWords := map[string]int{}

	matches, err := filepath.Glob(filepath.Join(root, "blog", "*.html"))
	if err != nil {
		return nil, err
	}
	for _, match := range matches {
		f, err := os.Open(match)
		if err != nil {
			return nil, err
		}
		doc, err := goquery.NewDocumentFromReader(f)
		f.Close()
		if err != nil {
			return nil, err
		}

		text := doc.Find("main").Text()
		relevant := stopwords.CleanString(text, "en", true)
		for _, w := range wordRe.FindAllString(relevant, -1) {
			lw := strings.ToLower(w)
			if len(lw) >= 3 {
				inputWords[lw] += 1
			}
		}
	}
	return inputWords, nil
}

func runWordcloudCommand(cmd *cobra.Command, args []string) {
	root, err := configuration.ArchiveRoot()
	if err != nil {
		log.Fatal(err)
	}

	inputWords, err := artifactWords(root)
	if err != nil {
		log.Fatal(err)
	}
	if len(inputWords) == 0 {
		log.Fatal("No archived posts to build a cloud from")
	}

	wordList := make([]string, 0, len(inputWords))
	for w := range inputWords {
		wordList = append(wordList, w)
	}
	sort.Slice(wordList, func(i, j int) bool {
		return inputWords[wordList[i]] < inputWords[wordList[j]]
	})
	if len(wordList) > maxWords {
		wordList = wordList[len(wordList)-maxWords:]
	}

	displayWords := map[string]int{}
	for _, w := range wordList {
		displayWords[w] = inputWords[w]
	}

	conf := DefaultConf
	content, err := os.ReadFile(configFile)
	if err == nil {
		if err = yaml.Unmarshal(content, &conf); err != nil {
			fmt.Printf("Failed to decode config, using defaults instead: %s\n", err)
		}
	} else {
		fmt.Println("No config file. Using defaults")
	}

	colors := make([]color.Color, 0)
	for _, c := range conf.Colors {
		colors = append(colors, c)
	}

	oarr := []wordclouds.Option{wordclouds.FontFile(conf.FontFile),
		wordclouds.FontMaxSize(conf.FontMaxSize),
		wordclouds.FontMinSize(conf.FontMinSize),
		wordclouds.Colors(colors),
		wordclouds.Height(conf.Height),
		wordclouds.Width(conf.Width),
		wordclouds.RandomPlacement(conf.RandomPlacement),
		wordclouds.BackgroundColor(conf.BackgroundColor)}
	if conf.SizeFunction != nil {
		oarr = append(oarr, wordclouds.WordSizeFunction(*conf.SizeFunction))
	}
	if conf.Debug {
		oarr = append(oarr, wordclouds.Debug())
	}
	w := wordclouds.NewWordcloud(displayWords, oarr...)

	img := w.Draw()
	outputFile, err := os.Create(output)
	if err != nil {
		log.Fatal(err)
	}
	png.Encode(outputFile, img)
	outputFile.Close()
	fmt.Printf("Wrote %s\n", output)
}
