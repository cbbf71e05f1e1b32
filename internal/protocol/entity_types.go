package protocol

// entityTypeNames is the protocol 763 entity type registry, indexed by type ID.
var entityTypeNames = [...]string{
	"Allay", "Area Effect Cloud", "Armor Stand", "Arrow", "Axolotl",
	"Bat", "Bee", "Blaze", "Block Display", "Boat",
	"Camel", "Cat", "Cave Spider", "Chest Boat", "Chest Minecart",
	"Chicken", "Cod", "Command Block Minecart", "Cow", "Creeper",
	"Dolphin", "Donkey", "Dragon Fireball", "Drowned", "Egg",
	"Elder Guardian", "End Crystal", "Ender Dragon", "Ender Pearl", "Enderman",
	"Endermite", "Evoker", "Evoker Fangs", "Experience Bottle", "Experience Orb",
	"Eye of Ender", "Falling Block", "Firework Rocket", "Fox", "Frog",
	"Furnace Minecart", "Ghast", "Giant", "Glow Item Frame", "Glow Squid",
	"Goat", "Guardian", "Hoglin", "Hopper Minecart", "Horse",
	"Husk", "Illusioner", "Interaction", "Iron Golem", "Item",
	"Item Display", "Item Frame", "Fireball", "Leash Knot", "Lightning Bolt",
	"Llama", "Llama Spit", "Magma Cube", "Marker", "Minecart",
	"Mooshroom", "Mule", "Ocelot", "Painting", "Panda",
	"Parrot", "Phantom", "Pig", "Piglin", "Piglin Brute",
	"Pillager", "Polar Bear", "Potion", "Pufferfish", "Rabbit",
	"Ravager", "Salmon", "Sheep", "Shulker", "Shulker Bullet",
	"Silverfish", "Skeleton", "Skeleton Horse", "Slime", "Small Fireball",
	"Sniffer", "Snow Golem", "Snowball", "Spawner Minecart", "Spectral Arrow",
	"Spider", "Squid", "Stray", "Strider", "Tadpole",
	"Text Display", "TNT", "TNT Minecart", "Trader Llama", "Trident",
	"Tropical Fish", "Turtle", "Vex", "Villager", "Vindicator",
	"Wandering Trader", "Warden", "Witch", "Wither", "Wither Skeleton",
	"Wither Skull", "Wolf", "Zoglin", "Zombie", "Zombie Horse",
	"Zombie Villager", "Zombified Piglin", "Player", "Fishing Bobber",
}

var animationNames = [...]string{
	"Swing main arm",
	"Take damage",
	"Leave bed",
	"Swing offhand",
	"Critical effect",
	"Magic critical effect",
}

// EntityTypeName maps an entity type ID to its display name.
func EntityTypeName(id int32) string {
	if id < 0 || int(id) >= len(entityTypeNames) {
		return "Unknown"
	}
	return entityTypeNames[id]
}

func AnimationName(code uint8) string {
	if int(code) >= len(animationNames) {
		return "Unknown"
	}
	return animationNames[code]
}
