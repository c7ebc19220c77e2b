package model

// カート: productId -> size -> 数量
type Cart map[string]map[string]int

// IsEmpty は商品キーが1つも無いか
func (c Cart) IsEmpty() bool {
	return len(c) == 0
}

// Lines は (商品, サイズ) の組数
func (c Cart) Lines() int {
	n := 0
	for _, sizes := range c {
		n += len(sizes)
	}
	return n
}
