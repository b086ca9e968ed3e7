package catalog

var defaultProducts = []Product{
	{
		ID: 1, Name: "Classic Chocolate Cake",
		Description: "Rich and moist chocolate cake, perfect for celebrations.",
		Price:       25.99, Category: "Cakes", Rating: 4.8, StockQuantity: 15,
		ImageURL: "🎂", DietaryInfo: []string{"contains gluten", "contains dairy", "vegetarian"},
	},
	{
		ID: 2, Name: "Vanilla Bean Cupcakes (6-pack)",
		Description: "Fluffy vanilla cupcakes with creamy buttercream frosting.",
		Price:       18.00, Category: "Cupcakes", Rating: 4.5, StockQuantity: 30,
		ImageURL: "🧁", DietaryInfo: []string{"contains gluten", "contains dairy", "vegetarian"},
	},
	{
		ID: 3, Name: "Artisan Sourdough Bread",
		Description: "Authentic, crusty sourdough bread with a delightful tangy flavor.",
		Price:       8.50, Category: "Breads", Rating: 4.9, StockQuantity: 20,
		ImageURL: "🍞", DietaryInfo: []string{"contains gluten", "vegan"},
	},
	{
		ID: 4, Name: "Almond Croissants (Pair)",
		Description: "Buttery, flaky croissants filled with rich almond paste and topped with sliced almonds.",
		Price:       7.00, Category: "Pastries", Rating: 4.7, StockQuantity: 0,
		ImageURL: "🥐", DietaryInfo: []string{"contains gluten", "contains dairy", "contains nuts", "vegetarian"},
	},
	{
		ID: 5, Name: "Blueberry Muffins (4-pack)",
		Description: "Moist and tender muffins packed with juicy blueberries.",
		Price:       12.00, Category: "Muffins", Rating: 4.3, StockQuantity: 18,
		ImageURL: "🫐", DietaryInfo: []string{"contains gluten", "contains dairy", "vegetarian"},
	},
	{
		ID: 6, Name: "Vegan Chocolate Chip Cookies (Dozen)",
		Description: "Deliciously soft and chewy vegan cookies, loaded with chocolate chips.",
		Price:       22.00, Category: "Cookies", Rating: 4.6, StockQuantity: 22,
		ImageURL: "🍪", DietaryInfo: []string{"contains gluten", "vegan"},
	},
	{
		ID: 7, Name: "Gluten-Free Brownie Bites (Box of 8)",
		Description: "Intensely fudgy and rich gluten-free brownie bites for a decadent treat.",
		Price:       15.00, Category: "Brownies", Rating: 4.4, StockQuantity: 12,
		ImageURL: "🍫", DietaryInfo: []string{"gluten-free", "contains dairy", "vegetarian"},
	},
	{
		ID: 8, Name: "Raspberry Danish",
		Description: "Flaky pastry with a sweet cream cheese and raspberry filling.",
		Price:       4.50, Category: "Pastries", Rating: 4.5, StockQuantity: 10,
		ImageURL: "🍓", DietaryInfo: []string{"contains gluten", "contains dairy", "vegetarian"},
	},
}
