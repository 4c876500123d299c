package dummy

import (
	"math/rand/v2"
	"strings"
)

var loremSentences = []string{
	"Lorem ipsum dolor sit amet, consectetur adipiscing elit.",
	"Integer risus odio, auctor non pulvinar id, gravida ac arcu.",
	"Phasellus tempus odio vel metus tincidunt, quis dictum risus dignissim.",
	"Cras fringilla dictum velit, quis imperdiet ante luctus vel.",
	"Phasellus vestibulum neque eu est interdum vehicula.",
	"Curabitur tincidunt vestibulum dui, nec posuere sem condimentum sed.",
	"Donec in pharetra nunc.",
	"Duis in ligula interdum, dictum ipsum non, mattis enim.",
	"Vestibulum interdum orci eget nisi fringilla, vel convallis ligula molestie.",
	"Aliquam faucibus ex vel iaculis rutrum.",
	"Fusce quis metus eleifend, rutrum leo a, laoreet erat.",
	"In gravida dignissim sodales.",
	"Sed quis sapien volutpat, sollicitudin risus ut, porttitor diam.",
	"Pellentesque lobortis vehicula nibh nec fermentum.",
	"Integer quis dolor nibh.",
	"Duis non justo at quam placerat vulputate et nec justo.",
	"Ut id nulla sodales, tincidunt ex nec, accumsan elit.",
	"Aliquam erat volutpat.",
	"Proin a tellus nec leo placerat aliquet ut quis justo.",
	"Interdum et malesuada fames ac ante ipsum primis in faucibus.",
	"Nunc sed dignissim nisi.",
	"Cras nisl orci, vehicula eget tempus vel, pretium id nisi.",
	"Etiam dictum suscipit tortor in pellentesque.",
	"Vestibulum in metus in tellus tempus venenatis viverra eu ante.",
	"Ut non dui sit amet urna imperdiet luctus.",
	"Donec nec metus lacinia, egestas eros sed, tempus sapien.",
	"Cras rutrum eu enim eu pellentesque.",
	"Quisque id egestas dui.",
	"Duis feugiat in enim eget ultricies.",
	"Phasellus semper odio ipsum, id sodales dui vestibulum nec.",
	"Curabitur tincidunt varius lacus in elementum.",
	"Cras at risus ac justo consequat egestas vitae ac leo.",
	"Nunc faucibus tincidunt rutrum.",
	"Nulla pellentesque fringilla diam sit amet pellentesque.",
	"Morbi at sem id tellus ullamcorper pellentesque.",
	"Nullam commodo ut risus at porttitor.",
	"Ut tempus mauris purus, ut ullamcorper enim volutpat eget.",
	"Fusce id lacinia nisl.",
	"Quisque sed auctor nisi, sed ultricies quam.",
	"Cras vitae venenatis orci, cursus auctor est.",
	"Maecenas rutrum odio eget augue hendrerit blandit.",
	"Aenean vel imperdiet tellus.",
	"In feugiat sodales dignissim.",
	"Aenean convallis porta egestas.",
	"Aliquam fermentum finibus mi nec sagittis.",
	"Nunc egestas metus odio.",
	"Aliquam vel orci fringilla, maximus risus nec, egestas nunc.",
	"Nunc odio elit, mollis vel posuere vel, blandit sed nisl.",
	"Nullam et urna ac nisl ultrices pellentesque.",
	"In gravida libero eget suscipit molestie.",
	"Suspendisse potenti.",
}

var loremWords = strings.Fields("lorem ipsum dolor sit amet consectetur adipiscing elit integer risus odio auctor non pulvinar id gravida ac arcu phasellus tempus vel metus tincidunt quis dictum dignissim")

// sample returns k distinct elements of src in random order.
func sample(rng *rand.Rand, src []string, k int) []string {
	idx := rng.Perm(len(src))
	if k > len(src) {
		k = len(src)
	}
	out := make([]string, k)
	for i := range out {
		out[i] = src[idx[i]]
	}
	return out
}

func titleText(rng *rand.Rand) string {
	s := strings.Join(sample(rng, loremWords, 3+rng.IntN(6)), " ")
	return strings.ToUpper(s[:1]) + s[1:]
}

func paragraphText(rng *rand.Rand) string {
	return strings.Join(sample(rng, loremSentences, 3+rng.IntN(8)), " ")
}
